package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/relmenu/internal/codec"
	"github.com/papapumpkin/relmenu/internal/menu"
	"github.com/papapumpkin/relmenu/internal/share"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [json|-]",
	Short: "Encode a JSON value into a shareable token",
	Long: `Compresses a JSON value and prints it as a base64 token.

The value is read from the argument, or from stdin when the argument is "-"
or missing. With --title the output is a slug: title token, ":", payload.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEncode,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <token|slug>",
	Short: "Decode a token or slug back into JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

var slugCmd = &cobra.Command{
	Use:   "slug",
	Short: "Print the share slug and links for a TOML menu file",
	RunE:  runSlug,
}

func init() {
	encodeCmd.Flags().String("title", "", "emit a title:payload slug with this title")
	slugCmd.Flags().StringP("file", "f", "", "TOML menu file")
	_ = slugCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(encodeCmd, decodeCmd, slugCmd)
}

func runEncode(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	raw, err := readValueArg(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	v, err := parseJSON(raw)
	if err != nil {
		return err
	}

	var tok string
	if cmd.Flags().Changed("title") {
		title, _ := cmd.Flags().GetString("title")
		tok, err = e.codec.EncodeSlug(title, v)
	} else {
		tok, err = e.codec.Encode(v)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}

// decoded is the structured output of decode. Value holds the token's JSON
// text so object keys stay in encoded order.
type decoded struct {
	Title *string         `json:"title,omitempty"`
	Value json.RawMessage `json:"value"`
}

// MarshalYAML renders Value as block YAML, keeping mapping order.
func (d decoded) MarshalYAML() (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(d.Value, &doc); err != nil {
		return nil, fmt.Errorf("convert value: %w", err)
	}
	value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	if len(doc.Content) > 0 {
		value = doc.Content[0]
		blockStyle(value)
	}
	return struct {
		Title *string    `yaml:"title,omitempty"`
		Value *yaml.Node `yaml:"value"`
	}{d.Title, value}, nil
}

// blockStyle clears the flow and quoting styles JSON input parses with.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func runDecode(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	var out decoded
	if codec.IsSlug(args[0]) {
		title, err := e.codec.DecodeSlug(args[0], &out.Value)
		if err != nil {
			return err
		}
		out.Title = &title
	} else {
		out.Value, err = e.codec.DecodeRaw(args[0])
		if err != nil {
			return err
		}
	}

	if format == formatYAML {
		return writeStructured(cmd.OutOrStdout(), format, out)
	}
	return writeStructured(cmd.OutOrStdout(), formatJSON, out)
}

func runSlug(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	path, _ := cmd.Flags().GetString("file")
	title, m, err := menu.LoadFile(path)
	if err != nil {
		return err
	}
	links, err := share.Links(e.codec, e.cfg.Share.BaseURL, title, m)
	if err != nil {
		return err
	}

	if format != formatTable {
		return writeStructured(cmd.OutOrStdout(), format, links)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, links.Slug)
	fmt.Fprintf(w, "menu:     %s\n", links.URL)
	fmt.Fprintf(w, "template: %s\n", links.TemplateURL)
	return nil
}

// readValueArg returns the single argument, or stdin when it is "-" or absent.
func readValueArg(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return []byte(args[0]), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}

// parseJSON checks that raw holds exactly one JSON value and returns it
// compacted. Key order and numbers stay as written.
func parseJSON(raw []byte) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("no JSON value given")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	var v json.RawMessage
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("parse JSON: trailing data after value")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return json.RawMessage(buf.Bytes()), nil
}

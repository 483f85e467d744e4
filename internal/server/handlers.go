package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/papapumpkin/relmenu/internal/codec"
	"github.com/papapumpkin/relmenu/internal/compare"
	"github.com/papapumpkin/relmenu/internal/menu"
	"github.com/papapumpkin/relmenu/internal/share"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeDecodeFailed = "DECODE_FAILED"
	CodeEncodeFailed = "ENCODE_FAILED"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// EncodeRequest is the body of POST /v1/encode. Value is encoded as sent,
// with its key order intact.
type EncodeRequest struct {
	Value json.RawMessage `json:"value"`
}

// EncodeResponse is returned by POST /v1/encode.
type EncodeResponse struct {
	Token string `json:"token"`
}

// DecodeRequest is the body of POST /v1/decode.
type DecodeRequest struct {
	Token string `json:"token"`
}

// DecodeResponse is returned by POST /v1/decode. Value is the token's JSON
// text.
type DecodeResponse struct {
	Value json.RawMessage `json:"value"`
}

// MenuResponse is returned by GET /v1/menu.
type MenuResponse struct {
	Title string        `json:"title"`
	Menu  *menu.Menu    `json:"menu"`
	Links share.LinkSet `json:"links"`
}

// ColumnStatus reports how one comparison parameter resolved.
type ColumnStatus struct {
	Param string `json:"param"`
	Title string `json:"title"`
	Error string `json:"error,omitempty"`
}

// CompareResponse is returned by GET /v1/compare. Table columns line up with
// Columns; Resolved lists the columns that produced a menu.
type CompareResponse struct {
	Titles   []string        `json:"titles"`
	Resolved []int           `json:"resolved"`
	Columns  []ColumnStatus  `json:"columns"`
	Table    *compare.Table  `json:"table"`
	Summary  compare.Summary `json:"summary"`
}

// DocumentInput is one document in POST /v1/documents. Exactly one of Menu
// and Encoded should be set; Menu wins when both are.
type DocumentInput struct {
	Title   string     `json:"title"`
	Menu    *menu.Menu `json:"menu,omitempty"`
	Encoded string     `json:"encoded,omitempty"`
}

// DocumentsResponse is returned by GET /v1/documents.
type DocumentsResponse struct {
	Documents map[string]menu.Document `json:"documents"`
}

// SaveResponse is returned by POST /v1/documents.
type SaveResponse struct {
	IDs []string `json:"ids"`
}

func (s *Server) fail(c *gin.Context, status int, code string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err, "request_id", c.GetString(requestIDKey))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code, RequestID: c.GetString(requestIDKey)})
}

// failResolve maps resolver errors onto HTTP statuses.
func (s *Server) failResolve(c *gin.Context, err error) {
	switch {
	case errors.Is(err, share.ErrNotFound):
		s.fail(c, http.StatusNotFound, CodeNotFound, err)
	case errors.Is(err, share.ErrEmptyParam):
		s.fail(c, http.StatusBadRequest, CodeBadRequest, err)
	case codec.IsDecodeError(err):
		s.metrics.decodeFailures.Inc()
		s.fail(c, http.StatusUnprocessableEntity, CodeDecodeFailed, err)
	default:
		s.fail(c, http.StatusInternalServerError, CodeInternal, err)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if !s.store.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleEncode(c *gin.Context) {
	var req EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	tok, err := s.codec.Encode(req.Value)
	if err != nil {
		s.fail(c, http.StatusBadRequest, CodeEncodeFailed, err)
		return
	}
	c.JSON(http.StatusOK, EncodeResponse{Token: tok})
}

func (s *Server) handleDecode(c *gin.Context) {
	var req DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	v, err := s.codec.DecodeRaw(req.Token)
	if err != nil {
		s.failResolve(c, err)
		return
	}
	c.JSON(http.StatusOK, DecodeResponse{Value: v})
}

func (s *Server) handleMenu(c *gin.Context) {
	title, m, err := s.resolver.Resolve(c.Request.Context(), c.Query(share.QueryParam))
	if err != nil {
		s.failResolve(c, err)
		return
	}
	links, err := share.Links(s.codec, s.baseURL, title, m)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, CodeEncodeFailed, err)
		return
	}
	c.JSON(http.StatusOK, MenuResponse{Title: title, Menu: m, Links: links})
}

func (s *Server) handleCompare(c *gin.Context) {
	params := c.QueryArray(share.QueryParam)
	res, err := s.resolver.Compare(c.Request.Context(), params)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, CodeInternal, err)
		return
	}
	if len(res.Columns) == 0 {
		s.fail(c, http.StatusBadRequest, CodeBadRequest, errors.New("at least one encoded parameter is required"))
		return
	}

	cols := make([]ColumnStatus, len(res.Columns))
	for i, col := range res.Columns {
		cols[i] = ColumnStatus{Param: col.Param, Title: col.Title}
		if col.Err != nil {
			cols[i].Error = col.Err.Error()
			if codec.IsDecodeError(col.Err) {
				s.metrics.decodeFailures.Inc()
			}
		}
	}
	c.JSON(http.StatusOK, CompareResponse{
		Titles:   res.Titles(),
		Resolved: res.Resolved(),
		Columns:  cols,
		Table:    res.Table,
		Summary:  res.Table.Summarize(),
	})
}

func (s *Server) handleGetDocuments(c *gin.Context) {
	docs, err := s.store.GetDocuments(c.Request.Context(), c.Query("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, CodeInternal, err)
		return
	}
	c.JSON(http.StatusOK, DocumentsResponse{Documents: docs})
}

func (s *Server) handleSaveDocuments(c *gin.Context) {
	var inputs []DocumentInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		s.fail(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}

	docs := make([]menu.Document, 0, len(inputs))
	for _, in := range inputs {
		if in.Title == "" {
			s.fail(c, http.StatusBadRequest, CodeBadRequest, errors.New("document title is required"))
			return
		}
		if in.Menu != nil {
			doc, err := share.NewDocument(s.codec, in.Title, in.Menu)
			if err != nil {
				s.fail(c, http.StatusBadRequest, CodeEncodeFailed, err)
				return
			}
			docs = append(docs, doc)
			continue
		}
		var m menu.Menu
		if err := s.codec.Decode(in.Encoded, &m); err != nil {
			s.failResolve(c, err)
			return
		}
		docs = append(docs, menu.Document{Title: in.Title, Encoded: in.Encoded})
	}

	ids, err := s.store.SaveDocuments(c.Request.Context(), docs...)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, CodeInternal, err)
		return
	}
	c.JSON(http.StatusCreated, SaveResponse{IDs: ids})
}

func (s *Server) handleClearDocuments(c *gin.Context) {
	if err := s.store.Clear(c.Request.Context()); err != nil {
		s.fail(c, http.StatusInternalServerError, CodeInternal, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	log "github.com/go-pkgz/lgr"

	"github.com/umputun/tube-relay/app/delivery"
)

var errNoUser = errors.New("user_id is zero")

// ID is a telegram id, accepted as a json number or a numeric string
type ID string

// UnmarshalJSON keeps raw value of a number or a string
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id should be a number or a string: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Int64 parses the id, telegram ids are integers
func (id ID) Int64() (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

// DownloadRequest is the body of POST /download
type DownloadRequest struct {
	URL      string `json:"url"`
	UserID   ID     `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
	Username string `json:"username,omitempty"`
	ChatID   ID     `json:"chat_id,omitempty"` // defaults to user_id
	Wait     *bool  `json:"wait,omitempty"`    // overrides server's await mode
}

// DownloadResponse is the body of successful POST /download
type DownloadResponse struct {
	Success   bool    `json:"success"`
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	JobID     string  `json:"job_id"`
	Delivered *bool   `json:"delivered,omitempty"` // set in await mode only
}

// POST /download - downloads and transcodes the link, then hands the file to delivery
func (s *Server) downloadCtrl(w http.ResponseWriter, r *http.Request) {
	req := DownloadRequest{}
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, 64*1024), &req); err != nil {
		sendError(w, r, http.StatusBadRequest, ErrCodeInvalidInput, err, "can't decode request")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" || req.UserID == "" {
		sendError(w, r, http.StatusBadRequest, ErrCodeMissingInput, errors.New("url or user_id missing"),
			"url and user_id are required")
		return
	}

	chatID, err := req.chatID()
	if errors.Is(err, errNoUser) {
		sendError(w, r, http.StatusBadRequest, ErrCodeMissingInput, err, "url and user_id are required")
		return
	}
	if err != nil {
		sendError(w, r, http.StatusBadRequest, ErrCodeInvalidInput, err, "user_id and chat_id should be numeric")
		return
	}

	dl, err := s.Extractor.Download(r.Context(), req.URL)
	if err != nil {
		sendError(w, r, http.StatusInternalServerError, ErrCodeExtractFailed, err, "download failed")
		return
	}

	job := delivery.Job{
		ID:          dl.ID,
		ChatID:      chatID,
		File:        dl.File,
		Dir:         dl.Dir,
		Title:       dl.Title,
		Duration:    int(math.Round(dl.Duration)),
		Performer:   dl.Uploader,
		RequestedBy: req.requestedBy(),
	}
	ticket, err := s.Delivery.Submit(r.Context(), job)
	if err != nil {
		if dl.Dir != "" {
			if e := os.RemoveAll(dl.Dir); e != nil {
				log.Printf("[WARN] can't remove %s: %v", dl.Dir, e)
			}
		}
		sendError(w, r, http.StatusInternalServerError, ErrCodeDeliveryFailed, err, "can't queue delivery")
		return
	}

	resp := DownloadResponse{Success: true, Title: dl.Title, Duration: dl.Duration, JobID: dl.ID}
	if !s.await(req) {
		render.JSON(w, r, resp)
		return
	}

	if err := ticket.Wait(r.Context()); err != nil {
		sendError(w, r, http.StatusInternalServerError, ErrCodeDeliveryFailed, err, "delivery failed")
		return
	}
	delivered := true
	resp.Delivered = &delivered
	render.JSON(w, r, resp)
}

func (s *Server) await(req DownloadRequest) bool {
	if req.Wait != nil {
		return *req.Wait
	}
	return s.AwaitDelivery
}

func (req DownloadRequest) chatID() (int64, error) {
	userID, err := req.UserID.Int64()
	if err != nil {
		return 0, fmt.Errorf("bad user_id %q: %w", req.UserID, err)
	}
	if userID == 0 {
		return 0, errNoUser
	}
	if req.ChatID == "" {
		return userID, nil
	}
	chatID, err := req.ChatID.Int64()
	if err != nil {
		return 0, fmt.Errorf("bad chat_id %q: %w", req.ChatID, err)
	}
	return chatID, nil
}

// requestedBy prefers display name, falls back to @username
func (req DownloadRequest) requestedBy() string {
	if name := strings.TrimSpace(req.UserName); name != "" {
		return name
	}
	if uname := strings.TrimPrefix(strings.TrimSpace(req.Username), "@"); uname != "" {
		return "@" + uname
	}
	return ""
}

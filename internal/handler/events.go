package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/declabot/internal/bot"
	"github.com/declabot/internal/filestore"
	"github.com/declabot/internal/media"
)

// EventsHandler is the public command intake: the chat transport (or anything
// else) posts commands here and gets the bot's replies back in the response.
type EventsHandler struct {
	BaseHandler
	bot       *bot.Bot
	collector *Collector
	blobs     *filestore.Store
	maxUpload int64
}

func NewEventsHandler(b *bot.Bot, c *Collector, blobs *filestore.Store, maxUploadSizeMB int, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		BaseHandler: BaseHandler{Logger: logger},
		bot:         b,
		collector:   c,
		blobs:       blobs,
		maxUpload:   int64(maxUploadSizeMB) << 20,
	}
}

// Command ingests one text command for one user.
func (h *EventsHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  int64  `json:"user_id"`
		Command string `json:"command"`
		Text    string `json:"text"`
	}
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if req.UserID <= 0 {
		h.errorResponse(w, r, http.StatusBadRequest, "user_id must be a positive integer")
		return
	}
	cmd, ok := bot.ParseCommand(req.Command)
	if !ok {
		h.errorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("unknown command %q", req.Command))
		return
	}
	if cmd == bot.CmdAddAttachment {
		h.errorResponse(w, r, http.StatusBadRequest, "attachments go through the attachment endpoint")
		return
	}

	ev := bot.Event{UserID: req.UserID, Command: cmd, Text: req.Text}
	if err := h.bot.Handle(r.Context(), ev); err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{"replies": h.collector.Drain(req.UserID)})
}

// Attachment ingests one uploaded receipt as a multipart form with a user_id
// field and a file part.
func (h *EventsHandler) Attachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "form too large or invalid")
		return
	}
	defer r.MultipartForm.RemoveAll()

	userID, err := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		h.errorResponse(w, r, http.StatusBadRequest, "user_id must be a positive integer")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "missing file part")
		return
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	contentType := http.DetectContentType(data)
	data = media.Sanitize(data, contentType)

	id, err := h.blobs.Save(data)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	ev := bot.Event{
		UserID:  userID,
		Command: bot.CmdAddAttachment,
		Attachment: &bot.FileRef{
			ID:          id,
			ContentType: contentType,
			Size:        int64(len(data)),
		},
	}
	if err := h.bot.Handle(r.Context(), ev); err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{"replies": h.collector.Drain(userID)})
}

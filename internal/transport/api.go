package transport

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/ganot/logitrack/internal/api"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/portal"
	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/ganot/logitrack/internal/metrics"
	"github.com/ganot/logitrack/internal/sheet"
	"github.com/go-chi/chi/v5"
)

// maxUpload bounds the size of an uploaded workbook.
const maxUpload = 32 << 20

func (s *Server) mutated(w http.ResponseWriter, kind string, res api.MutationResult, err error) {
	metrics.ObserveMutation(kind, err)
	if err != nil {
		s.logger.Warn("mutation failed", "kind", kind, "error", err)
		writeError(w, err)
		return
	}
	res.Success = true
	respond(w, http.StatusOK, res)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad %s", errBadBody, name)
	}
	return id, nil
}

func historyFilter(r *http.Request) order.HistoryFilter {
	q := r.URL.Query()
	return order.HistoryFilter{
		Client:    q.Get("client"),
		Locality:  q.Get("locality"),
		Channel:   q.Get("channel"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, api.NewMeResponse(mustUser(r)))
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.cfg.Users.VisibleChannels(r.Context(), mustUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, api.ChannelsResponse{Channels: channels})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	u := mustUser(r)
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		channel = order.AllChannels
	}
	orders, err := s.cfg.Orders.List(r.Context(), u, channel)
	if err != nil {
		writeError(w, err)
		return
	}
	channels, err := s.cfg.Users.VisibleChannels(r.Context(), u)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, api.OrdersResponse{Orders: orders, Channels: channels, Channel: channel})
}

// handleSync imports the uploaded workbook, or the configured source when the
// request carries no file.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	rows, err := s.syncRows(r)
	if err != nil {
		s.mutated(w, "sync", api.MutationResult{}, err)
		return
	}
	res, err := s.cfg.Orders.Sync(r.Context(), mustUser(r), rows)
	if err != nil {
		s.mutated(w, "sync", api.MutationResult{}, err)
		return
	}
	msg := fmt.Sprintf("%d created, %d updated, %d skipped", res.Created, res.Updated, res.Skipped)
	s.mutated(w, "sync", api.MutationResult{Message: msg, Sync: res}, nil)
}

func (s *Server) syncRows(r *http.Request) ([]order.Order, error) {
	if err := r.ParseMultipartForm(maxUpload); err == nil {
		if f, _, err := r.FormFile("file"); err == nil {
			defer f.Close()
			rows, err := sheet.ParseGeneral(f, s.cfg.SyncSheet)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", order.ErrInvalidInput, err)
			}
			return rows, nil
		}
	}
	if s.cfg.SyncSource == "" {
		return nil, fmt.Errorf("%w: no workbook uploaded and no sync source configured", order.ErrInvalidInput)
	}
	data, err := os.ReadFile(s.cfg.SyncSource)
	if err != nil {
		return nil, fmt.Errorf("reading sync source: %w", err)
	}
	return sheet.ParseGeneral(bytes.NewReader(data), s.cfg.SyncSheet)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var req api.StatusRequest
	if err := decodeBody(r, &req); err != nil {
		s.mutated(w, "status", api.MutationResult{}, err)
		return
	}
	ref := chi.URLParam(r, "ref")
	res, err := s.cfg.Orders.UpdateStatus(r.Context(), mustUser(r), ref, req.Status)
	if err != nil {
		s.mutated(w, "status", api.MutationResult{}, err)
		return
	}
	s.mutated(w, "status", api.MutationResult{
		Message:     "status updated",
		Ref:         ref,
		Status:      res.Status,
		UpdatedRefs: res.UpdatedRefs,
	}, nil)
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	var req api.NotesRequest
	if err := decodeBody(r, &req); err != nil {
		s.mutated(w, "notes", api.MutationResult{}, err)
		return
	}
	ref := chi.URLParam(r, "ref")
	notes, err := s.cfg.Orders.UpdateNotes(r.Context(), mustUser(r), ref, req.Notes)
	s.mutated(w, "notes", api.MutationResult{Message: "notes saved", Ref: ref, Notes: &notes}, err)
}

func (s *Server) handleClearNotes(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	err := s.cfg.Orders.ClearNotes(r.Context(), mustUser(r), ref)
	empty := ""
	s.mutated(w, "clear_notes", api.MutationResult{Message: "notes cleared", Ref: ref, Notes: &empty}, err)
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.mutated(w, "task", api.MutationResult{}, err)
		return
	}
	var req api.TaskRequest
	if err := decodeBody(r, &req); err != nil {
		s.mutated(w, "task", api.MutationResult{}, err)
		return
	}
	res, err := s.cfg.Orders.ToggleTask(r.Context(), mustUser(r), id, req.Done)
	if err != nil {
		s.mutated(w, "task", api.MutationResult{}, err)
		return
	}
	s.mutated(w, "task", api.MutationResult{Ref: res.Ref, TaskID: res.TaskID, Done: res.Done}, nil)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	archived, err := s.cfg.Orders.Archive(r.Context(), mustUser(r), ref)
	s.mutated(w, "archive", api.MutationResult{Message: "order archived", Ref: ref, ArchivedRefs: archived}, err)
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	var req api.RefsRequest
	if err := decodeBody(r, &req); err != nil {
		s.mutated(w, "group", api.MutationResult{}, err)
		return
	}
	res, err := s.cfg.Orders.CreateBlock(r.Context(), mustUser(r), req.Refs)
	if err != nil {
		s.mutated(w, "group", api.MutationResult{}, err)
		return
	}
	s.mutated(w, "group", api.MutationResult{
		Message:     "block " + res.Block.Name + " created",
		BlockID:     res.Block.ID,
		GroupedRefs: res.GroupedRefs,
	}, nil)
}

func (s *Server) handleUngroup(w http.ResponseWriter, r *http.Request) {
	var req api.RefsRequest
	if err := decodeBody(r, &req); err != nil {
		s.mutated(w, "ungroup", api.MutationResult{}, err)
		return
	}
	ungrouped, err := s.cfg.Orders.Ungroup(r.Context(), mustUser(r), req.Refs)
	s.mutated(w, "ungroup", api.MutationResult{Message: "orders ungrouped", UngroupedRefs: ungrouped}, err)
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := s.cfg.Orders.BlockDetail(r.Context(), mustUser(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, detail)
}

func (s *Server) handleArchiveBlock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.mutated(w, "archive_block", api.MutationResult{}, err)
		return
	}
	archived, err := s.cfg.Orders.ArchiveBlock(r.Context(), mustUser(r), id)
	s.mutated(w, "archive_block", api.MutationResult{Message: "block archived", BlockID: id, ArchivedRefs: archived}, err)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.cfg.Orders.History(r.Context(), mustUser(r), historyFilter(r))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, api.HistoryResponse{Entries: entries})
}

func (s *Server) handleHistoryDownload(w http.ResponseWriter, r *http.Request) {
	entries, err := s.cfg.Orders.History(r.Context(), mustUser(r), historyFilter(r))
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := sheet.WriteHistory(&buf, entries); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", sheet.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sheet.HistoryFilename(s.now())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = io.Copy(w, &buf)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.mutated(w, "restore", api.MutationResult{}, err)
		return
	}
	o, err := s.cfg.Orders.Restore(r.Context(), mustUser(r), id)
	if err != nil {
		s.mutated(w, "restore", api.MutationResult{}, err)
		return
	}
	s.mutated(w, "restore", api.MutationResult{Message: "order restored", Ref: o.Ref, Status: o.Status}, nil)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.cfg.Users.List(r.Context(), mustUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, api.UsersResponse{Users: users})
}

type createUserRequest struct {
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Permissions []user.Permission `json:"permissions"`
	Channels    []string          `json:"channels"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.cfg.Users.Create(r.Context(), mustUser(r), user.CreateRequest(req))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, api.CreatedUserResponse{Success: true, User: *created.User, Token: created.Token})
}

func (s *Server) handleUserPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req api.PermissionsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := s.cfg.Users.SetPermissions(r.Context(), mustUser(r), id, req.Permissions)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, u)
}

func (s *Server) handleUserChannels(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req api.ChannelsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := s.cfg.Users.SetChannels(r.Context(), mustUser(r), id, req.Channels)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, u)
}

func (s *Server) handlePortals(w http.ResponseWriter, r *http.Request) {
	if !mustUser(r).Can(user.PermManagePortals) {
		writeError(w, portal.ErrForbidden)
		return
	}
	clients, err := s.cfg.Portals.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, clients)
}

func (s *Server) handleAddClient(w http.ResponseWriter, r *http.Request) {
	var req api.ClientRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := s.cfg.Portals.AddClient(r.Context(), mustUser(r), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Portals.DeleteClient(r.Context(), mustUser(r), chi.URLParam(r, "clientID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddPortal(w http.ResponseWriter, r *http.Request) {
	var req portal.AddPortalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := s.cfg.Portals.AddPortal(r.Context(), mustUser(r), chi.URLParam(r, "clientID"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePortal(w http.ResponseWriter, r *http.Request) {
	var upd portal.PortalUpdate
	if err := decodeBody(r, &upd); err != nil {
		writeError(w, err)
		return
	}
	p, err := s.cfg.Portals.UpdatePortal(r.Context(), mustUser(r), chi.URLParam(r, "portalID"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (s *Server) handleDeletePortal(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Portals.DeletePortal(r.Context(), mustUser(r), chi.URLParam(r, "portalID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

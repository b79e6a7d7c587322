package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/watchdeck/watchdeck/internal/database"
	"github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/models"
	"github.com/watchdeck/watchdeck/internal/store"
)

func (s *Server) healthCheck(c *gin.Context) {
	if err := database.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func (s *Server) pullProgress(c *gin.Context) {
	session := currentSession(c)

	records, err := s.progress.List(session.UserID)
	if err != nil {
		s.renderError(c, err)
		return
	}

	response := ProgressResponse{Records: make([]ProgressRecord, 0, len(records))}
	for _, record := range records {
		response.Records = append(response.Records, ProgressRecord{
			MediaID:    record.MediaID,
			PositionMs: record.PositionMs,
			UpdatedAt:  record.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) reportProgress(c *gin.Context) {
	session := currentSession(c)

	var req ReportProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, errors.ValidationError("invalid progress payload: "+err.Error()))
		return
	}

	applied := 0
	for _, record := range req.Records {
		changed, err := s.progress.Upsert(session.UserID, record.MediaID, record.PositionMs, record.UpdatedAt)
		if err != nil {
			s.renderError(c, err)
			return
		}
		if changed {
			applied++
		}
	}

	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

func (s *Server) searchMedia(c *gin.Context) {
	session := currentSession(c)

	query := c.Query("q")
	results, err := s.search.Search(c.Request.Context(), session.UserID, query)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) watchlistAction(c *gin.Context) {
	session := currentSession(c)

	var req WatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, errors.ValidationError("invalid watchlist payload: "+err.Error()))
		return
	}

	switch req.Action {
	case "listPlaylists":
		s.listPlaylists(c, session.UserID)
	case "getPlaylist":
		s.getPlaylist(c, session.UserID, req)
	case "listItems":
		s.listItems(c, session.UserID, req)
	case "createPlaylist":
		s.createPlaylist(c, session.UserID, req)
	case "updatePlaylist":
		s.updatePlaylist(c, session.UserID, req)
	case "deletePlaylist":
		s.deletePlaylist(c, session.UserID, req)
	case "clearPlaylist":
		s.clearPlaylist(c, session.UserID, req)
	case "sharePlaylist":
		s.sharePlaylist(c, session.UserID, req)
	case "addItem":
		s.addItem(c, session.UserID, req)
	case "removeItems":
		s.removeItems(c, session.UserID, req)
	case "moveItems":
		s.moveItems(c, session.UserID, req)
	case "copyItems":
		s.copyItems(c, session.UserID, req)
	case "updateSort":
		s.updateSort(c, session.UserID, req)
	case "updateOrder":
		s.updateOrder(c, session.UserID, req)
	case "getVisibility":
		s.getVisibility(c, session.UserID, req)
	case "setVisibility":
		s.setVisibility(c, session.UserID, req)
	case "adminBulkVisibility":
		s.adminBulkVisibility(c, req)
	default:
		s.renderError(c, errors.ValidationError("unknown action: "+req.Action))
	}
}

func (s *Server) listPlaylists(c *gin.Context, userID string) {
	playlists, err := s.playlists.List(userID)
	if err != nil {
		s.renderError(c, err)
		return
	}

	response := make([]PlaylistResponse, 0, len(playlists))
	for i := range playlists {
		response = append(response, s.playlistResponse(userID, &playlists[i]))
	}
	c.JSON(http.StatusOK, gin.H{"playlists": response})
}

func (s *Server) getPlaylist(c *gin.Context, userID string, req WatchlistRequest) {
	playlist, err := s.playlists.Get(userID, req.PlaylistID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.playlistResponse(userID, playlist))
}

func (s *Server) listItems(c *gin.Context, userID string, req WatchlistRequest) {
	items, total, err := s.items.List(userID, req.PlaylistID, store.ListOptions{
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		s.renderError(c, err)
		return
	}
	movies, tvShows, err := s.items.Summary(userID, req.PlaylistID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, ItemListResponse{
		Items:   items,
		Total:   total,
		Movies:  movies,
		TVShows: tvShows,
	})
}

func (s *Server) createPlaylist(c *gin.Context, userID string, req WatchlistRequest) {
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	privacy := models.PrivacyPrivate
	if req.Privacy != nil {
		privacy = *req.Privacy
	}

	playlist, err := s.playlists.Create(userID, name, description, privacy)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.playlistResponse(userID, playlist))
}

func (s *Server) updatePlaylist(c *gin.Context, userID string, req WatchlistRequest) {
	playlist, err := s.playlists.Update(userID, req.PlaylistID, store.PlaylistUpdate{
		Name:        req.Name,
		Description: req.Description,
		Privacy:     req.Privacy,
		SortLocked:  req.SortLocked,
	})
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.playlistResponse(userID, playlist))
}

func (s *Server) deletePlaylist(c *gin.Context, userID string, req WatchlistRequest) {
	if err := s.playlists.Delete(userID, req.PlaylistID); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": req.PlaylistID})
}

func (s *Server) clearPlaylist(c *gin.Context, userID string, req WatchlistRequest) {
	if err := s.playlists.Clear(userID, req.PlaylistID); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": req.PlaylistID})
}

func (s *Server) sharePlaylist(c *gin.Context, userID string, req WatchlistRequest) {
	if req.TargetUserID == "" {
		s.renderError(c, errors.ValidationError("target_user_id is required"))
		return
	}
	if err := s.playlists.Share(userID, req.PlaylistID, req.TargetUserID, req.CanEdit); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shared": req.PlaylistID})
}

func (s *Server) addItem(c *gin.Context, userID string, req WatchlistRequest) {
	if req.Item == nil {
		s.renderError(c, errors.ValidationError("item is required"))
		return
	}
	item, err := s.items.Add(userID, req.PlaylistID, store.NewItem{
		MediaID:     req.Item.MediaID,
		TMDBID:      req.Item.TMDBID,
		MediaType:   req.Item.MediaType,
		Title:       req.Item.Title,
		ReleaseDate: req.Item.ReleaseDate,
		IsExternal:  req.Item.IsExternal,
	})
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) removeItems(c *gin.Context, userID string, req WatchlistRequest) {
	if err := s.items.Remove(userID, req.PlaylistID, req.ItemIDs); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": len(req.ItemIDs)})
}

func (s *Server) moveItems(c *gin.Context, userID string, req WatchlistRequest) {
	if err := s.items.Move(userID, req.PlaylistID, req.TargetPlaylistID, req.ItemIDs); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": len(req.ItemIDs)})
}

func (s *Server) copyItems(c *gin.Context, userID string, req WatchlistRequest) {
	if err := s.items.Copy(userID, req.PlaylistID, req.TargetPlaylistID, req.ItemIDs); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"copied": len(req.ItemIDs)})
}

func (s *Server) updateSort(c *gin.Context, userID string, req WatchlistRequest) {
	if err := s.playlists.UpdateSort(userID, req.PlaylistID, req.SortBy, req.SortOrder); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sort_by": req.SortBy, "sort_order": req.SortOrder})
}

func (s *Server) updateOrder(c *gin.Context, userID string, req WatchlistRequest) {
	if err := s.playlists.UpdateOrder(userID, req.PlaylistID, req.Order); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": req.Order})
}

func (s *Server) getVisibility(c *gin.Context, userID string, req WatchlistRequest) {
	hidden, err := s.visibility.Hidden(userID, req.MediaID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, VisibilityResponse{MediaID: req.MediaID, Hidden: hidden})
}

func (s *Server) setVisibility(c *gin.Context, userID string, req WatchlistRequest) {
	if err := s.visibility.Set(userID, req.MediaID, req.Hidden); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, VisibilityResponse{MediaID: req.MediaID, Hidden: req.Hidden})
}

func (s *Server) adminBulkVisibility(c *gin.Context, req WatchlistRequest) {
	session := currentSession(c)
	if !session.IsAdmin() {
		s.renderError(c, errors.PermissionError("admin role required"))
		return
	}
	targetUser := req.TargetUserID
	if targetUser == "" {
		targetUser = session.UserID
	}
	if err := s.visibility.BulkSet(targetUser, req.MediaIDs, req.Hidden); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(req.MediaIDs)})
}

func (s *Server) playlistResponse(userID string, playlist *models.Playlist) PlaylistResponse {
	var order []string
	if playlist.CustomOrder != nil {
		// A corrupt stored order renders as absent rather than failing
		// the whole response.
		_ = json.Unmarshal([]byte(*playlist.CustomOrder), &order)
	}
	return PlaylistResponse{
		ID:          playlist.ID,
		UserID:      playlist.UserID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Privacy:     playlist.Privacy,
		IsDefault:   playlist.IsDefault,
		SortBy:      playlist.SortBy,
		SortOrder:   playlist.SortOrder,
		SortLocked:  playlist.SortLocked,
		CustomOrder: order,
		ItemCount:   playlist.ItemCount,
		IsOwner:     playlist.UserID == userID,
		CanEdit:     s.playlists.CanEdit(userID, playlist),
	}
}

// renderError maps application error codes to HTTP statuses. The payload
// always carries a human-readable message.
func (s *Server) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	label := "internal error"

	switch errors.GetErrorCode(err) {
	case errors.CodeValidation, errors.CodeInvalidInput:
		status = http.StatusBadRequest
		label = "validation error"
	case errors.CodeNotFound:
		status = http.StatusNotFound
		label = "not found"
	case errors.CodeAlreadyExists:
		status = http.StatusConflict
		label = "already exists"
	case errors.CodePermissionDenied, errors.CodeSortLocked, errors.CodeDefaultPlaylist:
		status = http.StatusForbidden
		label = "forbidden"
	case errors.CodeUnauthorized:
		status = http.StatusUnauthorized
		label = "unauthorized"
	case errors.CodeRateLimited:
		status = http.StatusTooManyRequests
		label = "rate limited"
	case errors.CodeServiceUnavailable, errors.CodeExternalService:
		status = http.StatusBadGateway
		label = "upstream error"
	}

	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(c.Request.Context(), "request failed", err)
	}
	c.JSON(status, ErrorResponse{Error: label, Message: err.Error()})
}

package schools

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/CLEPPathfinder/CP-Backend/internal/httputil"
	"github.com/CLEPPathfinder/CP-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	VoteTypeUp   = "upvote"
	VoteTypeDown = "downvote"
)

// VoteAction is the decision a vote request resolves to.
type VoteAction int

const (
	// VoteInsert records a first vote.
	VoteInsert VoteAction = iota
	// VoteSwitch moves an existing vote to the other bucket.
	VoteSwitch
	// VoteRemove toggles an existing vote off.
	VoteRemove
)

// DecideVote maps the client's claimed previous vote and the requested vote
// type onto an action. Repeating the same vote toggles it off; voting the
// other way switches; anything else is a fresh vote.
func DecideVote(previous, requested string) VoteAction {
	switch previous {
	case requested:
		return VoteRemove
	case VoteTypeUp, VoteTypeDown:
		return VoteSwitch
	default:
		return VoteInsert
	}
}

type voteRequest struct {
	VoteType     string `json:"voteType"`
	PreviousVote string `json:"previousVote"`
	UserIP       string `json:"userIp"`
}

// VoteHandler casts, switches, or retracts a vote and returns the fresh
// tallies. The lookup, mutation and recount run in one transaction with the
// voter's existing row locked, so concurrent requests from the same address
// cannot produce duplicate rows.
func (h *Handler) VoteHandler(w http.ResponseWriter, r *http.Request) {
	schoolID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid school ID")
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.VoteType != VoteTypeUp && req.VoteType != VoteTypeDown {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid vote type. Must be 'upvote' or 'downvote'")
		return
	}

	userIP := req.UserIP
	if userIP == "" {
		userIP = middleware.ClientIP(r)
	}

	var exists bool
	err = h.DB.Model(&School{}).Select("COUNT(*) > 0").Where("id = ?", schoolID).Find(&exists).Error
	if err != nil {
		log.Printf("[schools] vote lookup error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to process vote")
		return
	}
	if !exists {
		httputil.WriteError(w, http.StatusNotFound, "School not found")
		return
	}

	var counts VoteCounts
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var existing Vote
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("school_id = ? AND user_ip = ?", schoolID, userIP).
			Take(&existing).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// The client-supplied previous vote drives the decision; the locked
		// row is what actually gets mutated, so a stale claim can't create a
		// second row for the same (school, ip).
		switch DecideVote(req.PreviousVote, req.VoteType) {
		case VoteRemove:
			if found {
				if err := tx.Delete(&existing).Error; err != nil {
					return err
				}
			}
		case VoteSwitch, VoteInsert:
			if found {
				if err := tx.Model(&existing).Update("vote_type", req.VoteType).Error; err != nil {
					return err
				}
			} else {
				// Two concurrent first votes both see no row to lock; the
				// unique index on (school_id, user_ip) plus the upsert
				// collapses them into one.
				vote := Vote{SchoolID: uint(schoolID), VoteType: req.VoteType, UserIP: userIP}
				err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "school_id"}, {Name: "user_ip"}},
					DoUpdates: clause.AssignmentColumns([]string{"vote_type"}),
				}).Create(&vote).Error
				if err != nil {
					return err
				}
			}
		}

		counts, err = countVotes(tx, uint(schoolID))
		return err
	})
	if err != nil {
		log.Printf("[schools] vote error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to process vote")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"votes": counts})
}

func countVotes(tx *gorm.DB, schoolID uint) (VoteCounts, error) {
	var counts VoteCounts
	err := tx.Model(&Vote{}).
		Select(
			"COUNT(*) FILTER (WHERE vote_type = ?) AS upvotes, COUNT(*) FILTER (WHERE vote_type = ?) AS downvotes",
			VoteTypeUp, VoteTypeDown,
		).
		Where("school_id = ?", schoolID).
		Find(&counts).Error
	return counts, err
}

package auth

import (
	"time"

	"github.com/CLEPPathfinder/CP-Backend/internal/middleware"
	"github.com/CLEPPathfinder/CP-Backend/internal/utils"
	"gorm.io/gorm"
)

// SessionInfo implements middleware.SessionFetcher against the sessions table.
// Expired rows are deleted the moment they are seen, so a stale token never
// authenticates twice.
type SessionInfo struct {
	DB *gorm.DB
}

func (si SessionInfo) FindSessionByToken(token string) (utils.SessionData, error) {
	var row struct {
		UserID    string
		Username  string
		ExpiresAt time.Time
	}

	err := si.DB.Table("app_auth.sessions").
		Select("app_auth.sessions.user_id, app_auth.users.username, app_auth.sessions.expires_at").
		Joins("JOIN app_auth.users ON app_auth.users.user_id = app_auth.sessions.user_id").
		Where("app_auth.sessions.token = ?", token).
		Take(&row).Error
	if err != nil {
		return utils.SessionData{}, err
	}

	if row.ExpiresAt.Before(time.Now()) {
		si.DB.Where("token = ?", token).Delete(&Session{})
		return utils.SessionData{}, middleware.ErrSessionExpired
	}

	return utils.SessionData{
		UserID:    row.UserID,
		Username:  row.Username,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

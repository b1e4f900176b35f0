package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

// MaxMessageLen bounds a chat message in bytes.
const MaxMessageLen = 4000

// userIDRx allows letters, digits, underscore and hyphen, 1-64 chars.
var userIDRx = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

var dateRx = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("userId is required")
	}
	if !userIDRx.MatchString(v) {
		return fmt.Errorf("userId must match %s", userIDRx.String())
	}
	return nil
}

func Message(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("message is required")
	}
	if len(v) > MaxMessageLen {
		return fmt.Errorf("message exceeds %d characters", MaxMessageLen)
	}
	return nil
}

func Date(v string) error {
	if !dateRx.MatchString(v) {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return fmt.Errorf("invalid date %q", v)
	}
	return nil
}

func MaxLen(field, v string, limit int) error {
	if len(v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// -------- Request specific helpers ----------

// CreateProfile checks request-level rules; entity invariants are left to
// model.UserProfile.Validate.
func CreateProfile(p model.UserProfile) error {
	if err := UserID(p.UserID); err != nil {
		return err
	}
	if err := MaxLen("displayName", p.DisplayName, 100); err != nil {
		return err
	}
	for platform, id := range p.MessagingIDs {
		if platform == "" || id == "" {
			return fmt.Errorf("messagingIds entries must be non-empty")
		}
	}
	return p.Validate()
}

func CreateGoal(g model.Goal) error {
	if !g.Type.Valid() {
		return fmt.Errorf("unknown goal type %q", g.Type)
	}
	if g.Target <= 0 {
		return fmt.Errorf("target must be positive")
	}
	return MaxLen("milestone", g.Milestone, 200)
}

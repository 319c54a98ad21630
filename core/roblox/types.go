package roblox

import (
	"encoding/json"

	"roster-manager/core/utils"
)

// Member represents one group member as returned by the roster endpoint.
// Instances are produced fresh on every fetch and are never persisted here;
// mirroring them locally is the roster store's job.
type Member struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	RoleID      int64  `json:"role_id"`
	RoleName    string `json:"role_name"`
	JoinedAt    string `json:"joined_at"`
}

// Role represents a role in the group's role hierarchy.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Rank        int    `json:"rank"`
	MemberCount int    `json:"memberCount"`
}

// GroupInfo holds basic information about the group.
type GroupInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
}

// membershipPayload is the wire shape of one roster entry. The role field is
// kept raw because the API has been observed returning it both as an object
// and as a bare scalar.
type membershipPayload struct {
	User struct {
		UserID      int64  `json:"userId"`
		Username    string `json:"username"`
		DisplayName string `json:"displayName"`
	} `json:"user"`
	Role     json.RawMessage `json:"role"`
	JoinTime string          `json:"joinTime"`
}

// memberPage is one page of the paginated roster listing.
type memberPage struct {
	Data           []membershipPayload `json:"data"`
	NextPageCursor string              `json:"nextPageCursor"`
}

// normalizeRole extracts a role ID and name from an ambiguously shaped role
// payload. Unknown shapes degrade to a string rendering of the value rather
// than failing the member.
func normalizeRole(raw json.RawMessage) (int64, string) {
	if len(raw) == 0 {
		return 0, ""
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return utils.ToInt64(obj["id"]), utils.ToString(obj["name"])
	}

	var scalar any
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return 0, utils.ToString(scalar)
	}

	return 0, string(raw)
}

// toMember converts a wire payload into the normalized Member shape.
func (p membershipPayload) toMember() Member {
	roleID, roleName := normalizeRole(p.Role)
	return Member{
		UserID:      p.User.UserID,
		Username:    p.User.Username,
		DisplayName: p.User.DisplayName,
		RoleID:      roleID,
		RoleName:    roleName,
		JoinedAt:    p.JoinTime,
	}
}

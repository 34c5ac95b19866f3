package models

import "time"

// UserRole represents the actor roles recognised by the workflow engine.
type UserRole string

const (
	RolePublicApplicant     UserRole = "PUBLIC_APPLICANT"
	RoleMemberOfParliament  UserRole = "MEMBER_OF_PARLIAMENT"
	RoleBoardInitiator      UserRole = "REGIONAL_ROADS_BOARD_INITIATOR"
	RoleRAS                 UserRole = "REGIONAL_ADMINISTRATIVE_SECRETARY"
	RoleRC                  UserRole = "REGIONAL_COMMISSIONER"
	RoleMinister            UserRole = "MINISTER_OF_WORKS"
	RoleNRCCChairperson     UserRole = "NRCC_CHAIRPERSON"
	RoleNRCCMember          UserRole = "NRCC_MEMBER"
	RoleNRCCSecretariat     UserRole = "NRCC_SECRETARIAT"
	RoleMinistryLawyer      UserRole = "MINISTRY_LAWYER"
	RoleSystemAdministrator UserRole = "SYSTEM_ADMINISTRATOR"
)

// ApplicantRoles lists the roles that may create and own applications.
var ApplicantRoles = []UserRole{RolePublicApplicant, RoleMemberOfParliament, RoleBoardInitiator}

// IsApplicantRole reports whether the role belongs to the applicant side.
func IsApplicantRole(role UserRole) bool {
	for _, r := range ApplicantRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents an authenticated actor stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	RegionID     *int64     `db:"region_id" json:"region_id,omitempty"`
	DistrictID   *int64     `db:"district_id" json:"district_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

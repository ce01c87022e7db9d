package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DirectorySettings controls what other members see in the directory.
type DirectorySettings struct {
	Visible           bool `json:"visible"`
	ShowEmail         bool `json:"show_email"`
	ShowHospital      bool `json:"show_hospital"`
	ShowRegion        bool `json:"show_region"`
	ShowTrainingStage bool `json:"show_training_stage"`
}

// Profile is the application record for one identity, keyed by the identity ID.
type Profile struct {
	Base
	FullName              string            `json:"full_name"`
	Email                 string            `json:"email" gorm:"index"`
	Role                  Role              `json:"role" gorm:"not null"`
	ApprovalStatus        ApprovalStatus    `json:"approval_status" gorm:"not null;index"`
	Region                *string           `json:"region"`
	TrainingStage         *string           `json:"training_stage"`
	AcpgbiNumber          *string           `json:"acpgbi_number"`
	Hospital              *string           `json:"hospital"`
	AvatarURL             *string           `json:"avatar_url"`
	SocialTwitter         *string           `json:"social_twitter"`
	SocialLinkedin        *string           `json:"social_linkedin"`
	SubspecialtyInterests []string          `json:"subspecialty_interests" gorm:"type:text;serializer:json"`
	DirectorySettings     DirectorySettings `json:"directory_settings" gorm:"type:text;serializer:json"`
	IsDirectoryVisible    bool              `json:"is_directory_visible"`
	DeletionRequestedAt   *time.Time        `json:"deletion_requested_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// TableName returns the database table name for the Profile model.
func (Profile) TableName() string { return "profiles" }

// ApplyDefaults fills defaulted fields before the profile is written.
func (p *Profile) ApplyDefaults() {
	if p.Role == "" {
		p.Role = RoleTrainee
	}
	if p.ApprovalStatus == "" {
		p.ApprovalStatus = ApprovalPending
	}
	if p.SubspecialtyInterests == nil {
		p.SubspecialtyInterests = []string{}
	}
	p.IsDirectoryVisible = p.DirectorySettings.Visible
}

// Validate checks the profile's invariants.
func (p Profile) Validate() error {
	if p.ID == "" {
		return errors.New("profile must be keyed by an identity id")
	}
	if !p.Role.Valid() {
		return fmt.Errorf("unknown role %q", p.Role)
	}
	if !p.ApprovalStatus.Valid() {
		return fmt.Errorf("unknown approval_status %q", p.ApprovalStatus)
	}
	return nil
}

// TrainingStages lists the accepted training grades.
var TrainingStages = []string{
	"FY1", "FY2", "CT1", "CT2",
	"ST3", "ST4", "ST5", "ST6", "ST7", "ST8",
	"Post-CCT", "Consultant", "SAS", "Academic", "Other",
}

// Regions lists the deaneries and regions members train in.
var Regions = []string{
	"Mersey", "Wessex", "North East Thames", "North West", "Yorkshire",
	"South West", "South Wales", "Scotland", "Republic of Ireland",
	"East Anglia", "SE Thames", "Oxford", "Northern", "North West Thames",
	"West Midlands", "North Wales", "East Midlands", "Northern Ireland",
}

// ValidTrainingStage reports whether stage is one of TrainingStages.
func ValidTrainingStage(stage string) bool {
	return oneOf(stage, TrainingStages)
}

// ValidRegion reports whether region is one of Regions.
func ValidRegion(region string) bool {
	return oneOf(region, Regions)
}

// SelfServiceFields are the profile fields a member may edit on their own profile.
var SelfServiceFields = []string{
	"full_name", "hospital", "region", "training_stage", "social_twitter",
	"social_linkedin", "acpgbi_number", "subspecialty_interests", "avatar_url",
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

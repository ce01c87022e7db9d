package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases text and joins alphanumeric runs with hyphens.
func Slugify(text string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(text), "-"), "-")
}

// EventTypes lists the accepted event formats.
var EventTypes = []string{"Webinar", "Online Lecture", "Practical Workshop", "In Person Course", "Hybrid", "Conference"}

// AccessLevels lists who may book an event.
var AccessLevels = []string{"public", "registered", "members_only", "invite_only"}

// StreamTypes lists the live-stream providers for online events.
var StreamTypes = []string{"zoom", "vimeo_live", "hybrid"}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// IsStreamingType reports whether events of this type carry stream details.
func IsStreamingType(eventType string) bool {
	return eventType == "Webinar" || eventType == "Online Lecture" || eventType == "Hybrid"
}

// Event is a course, webinar or conference in the catalog.
type Event struct {
	Base
	Title             string     `json:"title" gorm:"not null"`
	Slug              string     `json:"slug" gorm:"index"`
	StartsAt          time.Time  `json:"starts_at" gorm:"index"`
	EndsAt            *time.Time `json:"ends_at"`
	Location          *string    `json:"location"`
	Address           *string    `json:"address"`
	DescriptionPlain  *string    `json:"description_plain"`
	EventType         string     `json:"event_type"`
	Capacity          *int       `json:"capacity"`
	PricePence        int        `json:"price_pence"`
	MemberPricePence  *int       `json:"member_price_pence"`
	Status            Status     `json:"status" gorm:"index"`
	IsFeatured        bool       `json:"is_featured"`
	BookingURL        *string    `json:"booking_url"`
	AccessLevel       string     `json:"access_level"`
	StreamType        *string    `json:"stream_type"`
	ZoomURL           *string    `json:"zoom_url"`
	ZoomMeetingID     *string    `json:"zoom_meeting_id"`
	ZoomPasscode      *string    `json:"zoom_passcode"`
	VimeoLiveID       *string    `json:"vimeo_live_id"`
	VimeoLiveEmbedURL *string    `json:"vimeo_live_embed_url"`
	Subspecialties    []string   `json:"subspecialties" gorm:"type:text;serializer:json"`
	PublishedAt       *time.Time `json:"published_at"`
}

// TableName returns the database table name for the Event model.
func (Event) TableName() string { return "events" }

// ApplyDefaults fills derived fields before the event is written.
func (e *Event) ApplyDefaults() {
	if e.Status == "" {
		e.Status = StatusDraft
	}
	if e.EventType == "" {
		e.EventType = "In Person Course"
	}
	if e.AccessLevel == "" {
		e.AccessLevel = "public"
	}
	if e.Slug == "" {
		e.Slug = Slugify(e.Title)
	}
	if e.Subspecialties == nil {
		e.Subspecialties = []string{}
	}
	switch {
	case e.Status != StatusPublished:
		e.PublishedAt = nil
	case e.PublishedAt == nil:
		now := time.Now().UTC()
		e.PublishedAt = &now
	}
	if !IsStreamingType(e.EventType) {
		e.StreamType, e.ZoomURL, e.ZoomMeetingID, e.ZoomPasscode = nil, nil, nil, nil
		e.VimeoLiveID, e.VimeoLiveEmbedURL = nil, nil
	}
}

// Validate checks the event's invariants.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("title is required")
	}
	if e.StartsAt.IsZero() {
		return errors.New("starts_at is required")
	}
	if e.EndsAt != nil && e.EndsAt.Before(e.StartsAt) {
		return errors.New("ends_at must not be before starts_at")
	}
	if !e.Status.Valid() {
		return fmt.Errorf("unknown status %q", e.Status)
	}
	if !oneOf(e.EventType, EventTypes) {
		return fmt.Errorf("unknown event_type %q", e.EventType)
	}
	if !oneOf(e.AccessLevel, AccessLevels) {
		return fmt.Errorf("unknown access_level %q", e.AccessLevel)
	}
	if e.StreamType != nil && !oneOf(*e.StreamType, StreamTypes) {
		return fmt.Errorf("unknown stream_type %q", *e.StreamType)
	}
	return nil
}

// Faculty is a speaker or course tutor.
type Faculty struct {
	Base
	FullName      string  `json:"full_name" gorm:"not null"`
	PositionTitle *string `json:"position_title"`
	Hospital      *string `json:"hospital"`
	Bio           *string `json:"bio"`
	PhotoURL      *string `json:"photo_url"`
	SortOrder     int     `json:"sort_order"`
	Status        Status  `json:"status"`
}

// TableName returns the database table name for the Faculty model.
func (Faculty) TableName() string { return "faculty" }

// ApplyDefaults fills derived fields before the row is written.
func (f *Faculty) ApplyDefaults() {
	if f.Status == "" {
		f.Status = StatusPublished
	}
}

// Validate checks the faculty member's invariants.
func (f Faculty) Validate() error {
	if strings.TrimSpace(f.FullName) == "" {
		return errors.New("full_name is required")
	}
	if !f.Status.Valid() {
		return fmt.Errorf("unknown status %q", f.Status)
	}
	return nil
}

// EventFaculty associates a faculty member with an event. The composite
// primary key allows one association per pair. Removing either side removes
// the association.
type EventFaculty struct {
	EventID   string    `json:"event_id" gorm:"primaryKey;type:varchar(36)"`
	FacultyID string    `json:"faculty_id" gorm:"primaryKey;type:varchar(36)"`
	Role      *string   `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	Event   *Event   `json:"-" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Faculty *Faculty `json:"-" gorm:"foreignKey:FacultyID;constraint:OnDelete:CASCADE"`
}

// BeforeDelete drops the event's faculty links in the same transaction.
func (e *Event) BeforeDelete(tx *gorm.DB) error {
	return deleteLinks(tx, "event_id", e.ID)
}

// BeforeDelete drops the faculty member's event links.
func (f *Faculty) BeforeDelete(tx *gorm.DB) error {
	return deleteLinks(tx, "faculty_id", f.ID)
}

func deleteLinks(tx *gorm.DB, column, id string) error {
	if id == "" {
		return errors.New("refusing to delete links without an id")
	}
	if err := tx.Where(column+" = ?", id).Delete(&EventFaculty{}).Error; err != nil {
		return fmt.Errorf("failed to delete event_faculty links by %s: %w", column, err)
	}
	return nil
}

// TableName returns the database table name for the EventFaculty model.
func (EventFaculty) TableName() string { return "event_faculty" }

// OnCall describes a fellowship's on-call commitments.
type OnCall struct {
	Weekday       string `json:"weekday"`
	WeekendDay    string `json:"weekend_day"`
	WeekdayNights string `json:"weekday_nights"`
	WeekendNights string `json:"weekend_nights"`
}

// Testimonial is a quote from a past fellow.
type Testimonial struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
	Year   string `json:"year,omitempty"`
}

// OperativeVolume is an indicative yearly case count for a procedure.
type OperativeVolume struct {
	Procedure string `json:"procedure"`
	Count     string `json:"count"`
}

// RichText wraps long-form copy.
type RichText struct {
	Text string `json:"text"`
}

// Fellowship is a post-CCT or senior trainee fellowship post.
type Fellowship struct {
	Base
	Name                   string            `json:"name" gorm:"not null"`
	Slug                   string            `json:"slug" gorm:"index"`
	City                   *string           `json:"city"`
	Country                string            `json:"country"`
	Address                *string           `json:"address"`
	Duration               string            `json:"duration"`
	Status                 Status            `json:"status" gorm:"index"`
	IsActive               bool              `json:"is_active"`
	Hospitals              []string          `json:"hospitals" gorm:"type:text;serializer:json"`
	Supervisors            []string          `json:"supervisors" gorm:"type:text;serializer:json"`
	Accreditation          []string          `json:"accreditation" gorm:"type:text;serializer:json"`
	Subspecialties         []string          `json:"subspecialties" gorm:"type:text;serializer:json"`
	Description            *RichText         `json:"description" gorm:"type:text;serializer:json"`
	LearningOutcomes       *string           `json:"learning_outcomes"`
	Latitude               *float64          `json:"latitude"`
	Longitude              *float64          `json:"longitude"`
	FeaturedImageURL       *string           `json:"featured_image_url"`
	SalaryPerAnnum         *int              `json:"salary_per_annum"`
	AccommodationAvailable bool              `json:"accommodation_available"`
	AccommodationNotes     *string           `json:"accommodation_notes"`
	Prerequisites          *string           `json:"prerequisites"`
	ApplicationProcess     *string           `json:"application_process"`
	OnCall                 OnCall            `json:"on_call" gorm:"type:text;serializer:json"`
	Testimonials           []Testimonial     `json:"testimonials" gorm:"type:text;serializer:json"`
	OperativeVolume        []OperativeVolume `json:"operative_volume" gorm:"type:text;serializer:json"`
}

// TableName returns the database table name for the Fellowship model.
func (Fellowship) TableName() string { return "fellowships" }

// ApplyDefaults fills derived fields before the row is written.
func (f *Fellowship) ApplyDefaults() {
	if f.Status == "" {
		f.Status = StatusDraft
	}
	if f.Slug == "" {
		f.Slug = Slugify(f.Name)
	}
	if f.Country == "" {
		f.Country = "United Kingdom"
	}
	if f.Duration == "" {
		f.Duration = "12 months"
	}
	for _, list := range []*[]string{&f.Hospitals, &f.Supervisors, &f.Accreditation, &f.Subspecialties} {
		if *list == nil {
			*list = []string{}
		}
	}
	if f.Testimonials == nil {
		f.Testimonials = []Testimonial{}
	}
	if f.OperativeVolume == nil {
		f.OperativeVolume = []OperativeVolume{}
	}
}

// Validate checks the fellowship's invariants.
func (f Fellowship) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("name is required")
	}
	if !f.Status.Valid() {
		return fmt.Errorf("unknown status %q", f.Status)
	}
	if f.Latitude != nil && (*f.Latitude < -90 || *f.Latitude > 90) {
		return errors.New("latitude out of range")
	}
	if f.Longitude != nil && (*f.Longitude < -180 || *f.Longitude > 180) {
		return errors.New("longitude out of range")
	}
	return nil
}

// Podcast is an episode of the society podcast.
type Podcast struct {
	Base
	Title           string     `json:"title" gorm:"not null"`
	Slug            string     `json:"slug" gorm:"index"`
	Description     *string    `json:"description"`
	AudioURL        *string    `json:"audio_url"`
	CoverImageURL   *string    `json:"cover_image_url"`
	EpisodeNumber   *int       `json:"episode_number"`
	DurationSeconds *int       `json:"duration_seconds"`
	Tags            []string   `json:"tags" gorm:"type:text;serializer:json"`
	Status          Status     `json:"status" gorm:"index"`
	PublishedAt     *time.Time `json:"published_at"`
}

// TableName returns the database table name for the Podcast model.
func (Podcast) TableName() string { return "podcasts" }

// ApplyDefaults fills derived fields before the row is written.
func (p *Podcast) ApplyDefaults() {
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Status == StatusPublished && p.PublishedAt == nil {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
}

// Validate checks the episode's invariants.
func (p Podcast) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("title is required")
	}
	if !p.Status.Valid() {
		return fmt.Errorf("unknown status %q", p.Status)
	}
	return nil
}

// Difficulties lists the question difficulty grades.
var Difficulties = []string{"easy", "medium", "hard"}

// Question is a single-best-answer exam question.
type Question struct {
	Base
	QuestionText  string   `json:"question_text" gorm:"not null"`
	Options       []string `json:"options" gorm:"type:text;serializer:json"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   *string  `json:"explanation"`
	TopicID       *string  `json:"topic_id" gorm:"type:varchar(36);index"`
	Subtopic      *string  `json:"subtopic"`
	Difficulty    string   `json:"difficulty"`
	QuestionType  string   `json:"question_type"`
	Source        *string  `json:"source"`
	ImageURL      *string  `json:"image_url"`
	Status        Status   `json:"status" gorm:"index"`
	Reviewed      bool     `json:"reviewed"`
}

// TableName returns the database table name for the Question model.
func (Question) TableName() string { return "questions" }

// ApplyDefaults drops blank options and fills defaulted fields.
func (q *Question) ApplyDefaults() {
	if q.Status == "" {
		q.Status = StatusDraft
	}
	if q.Difficulty == "" {
		q.Difficulty = "medium"
	}
	if q.QuestionType == "" {
		q.QuestionType = "single_best_answer"
	}
	opts := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		if strings.TrimSpace(o) != "" {
			opts = append(opts, o)
		}
	}
	q.Options = opts
}

// Validate checks the question's invariants.
func (q Question) Validate() error {
	if strings.TrimSpace(q.QuestionText) == "" {
		return errors.New("question_text is required")
	}
	if len(q.Options) < 2 {
		return errors.New("at least 2 options required")
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("correct_answer %d out of range", q.CorrectAnswer)
	}
	if !oneOf(q.Difficulty, Difficulties) {
		return fmt.Errorf("unknown difficulty %q", q.Difficulty)
	}
	if !q.Status.Valid() {
		return fmt.Errorf("unknown status %q", q.Status)
	}
	return nil
}

// QuestionTopic groups questions in the bank.
type QuestionTopic struct {
	Base
	Name      string `json:"name" gorm:"not null"`
	SortOrder int    `json:"sort_order"`
}

// TableName returns the database table name for the QuestionTopic model.
func (QuestionTopic) TableName() string { return "question_topics" }

// Flag states.
const (
	FlagOpen     = "open"
	FlagResolved = "resolved"
)

// QuestionFlag is a member's report of a problem with a question.
type QuestionFlag struct {
	Base
	QuestionID string     `json:"question_id" gorm:"type:varchar(36);index"`
	ReportedBy *string    `json:"reported_by" gorm:"type:varchar(36)"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status" gorm:"index"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// TableName returns the database table name for the QuestionFlag model.
func (QuestionFlag) TableName() string { return "question_flags" }

// ApplyDefaults fills defaulted fields.
func (f *QuestionFlag) ApplyDefaults() {
	if f.Status == "" {
		f.Status = FlagOpen
	}
}

// Validate checks the flag's invariants.
func (f QuestionFlag) Validate() error {
	if f.QuestionID == "" {
		return errors.New("question_id is required")
	}
	if f.Status != FlagOpen && f.Status != FlagResolved {
		return fmt.Errorf("unknown flag status %q", f.Status)
	}
	return nil
}

// Sponsor is an industry partner shown on the public site.
type Sponsor struct {
	Base
	Name       string  `json:"name" gorm:"not null"`
	Tier       string  `json:"tier"`
	LogoURL    *string `json:"logo_url"`
	WebsiteURL *string `json:"website_url"`
	SortOrder  int     `json:"sort_order"`
	Status     Status  `json:"status"`
}

// TableName returns the database table name for the Sponsor model.
func (Sponsor) TableName() string { return "sponsors" }

// ApplyDefaults fills defaulted fields.
func (s *Sponsor) ApplyDefaults() {
	if s.Status == "" {
		s.Status = StatusPublished
	}
}

// Validate checks the sponsor's invariants.
func (s Sponsor) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("name is required")
	}
	if !s.Status.Valid() {
		return fmt.Errorf("unknown status %q", s.Status)
	}
	return nil
}

// TeamMember sits on the executive committee.
type TeamMember struct {
	Base
	FullName  string  `json:"full_name" gorm:"not null"`
	Position  string  `json:"position"`
	Bio       *string `json:"bio"`
	PhotoURL  *string `json:"photo_url"`
	Email     *string `json:"email"`
	SortOrder int     `json:"sort_order"`
	Status    Status  `json:"status"`
}

// TableName returns the database table name for the TeamMember model.
func (TeamMember) TableName() string { return "executive_committee" }

// ApplyDefaults fills defaulted fields.
func (m *TeamMember) ApplyDefaults() {
	if m.Status == "" {
		m.Status = StatusPublished
	}
}

// Validate checks the team member's invariants.
func (m TeamMember) Validate() error {
	if strings.TrimSpace(m.FullName) == "" {
		return errors.New("full_name is required")
	}
	if !m.Status.Valid() {
		return fmt.Errorf("unknown status %q", m.Status)
	}
	return nil
}

// Video is a recorded lecture in the members' library.
type Video struct {
	Base
	Title          string   `json:"title" gorm:"not null"`
	Description    *string  `json:"description"`
	VimeoID        *string  `json:"vimeo_id"`
	ThumbnailURL   *string  `json:"thumbnail_url"`
	Subspecialties []string `json:"subspecialties" gorm:"type:text;serializer:json"`
	Status         Status   `json:"status" gorm:"index"`
}

// TableName returns the database table name for the Video model.
func (Video) TableName() string { return "videos" }

// ApplyDefaults fills defaulted fields.
func (v *Video) ApplyDefaults() {
	if v.Status == "" {
		v.Status = StatusDraft
	}
	if v.Subspecialties == nil {
		v.Subspecialties = []string{}
	}
}

// Validate checks the video's invariants.
func (v Video) Validate() error {
	if strings.TrimSpace(v.Title) == "" {
		return errors.New("title is required")
	}
	if !v.Status.Valid() {
		return fmt.Errorf("unknown status %q", v.Status)
	}
	return nil
}

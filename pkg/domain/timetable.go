package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const MinutesPerDay = 24 * 60

// ClockTime is a local wall-clock time expressed in minutes after midnight.
type ClockTime int

// ParseClockTime accepts "HH:MM" and "HH:MM:SS" (seconds are ignored).
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, ValidationError{Field: "time", Message: fmt.Sprintf("invalid clock time %q", s)}
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, ValidationError{Field: "time", Message: fmt.Sprintf("invalid hour in %q", s)}
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, ValidationError{Field: "time", Message: fmt.Sprintf("invalid minute in %q", s)}
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, ValidationError{Field: "time", Message: fmt.Sprintf("invalid second in %q", s)}
		}
	}

	return ClockTime(hours*60 + minutes), nil
}

// MustClockTime is ParseClockTime for literals known to be valid.
func MustClockTime(s string) ClockTime {
	t, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t ClockTime) String() string {
	m := int(t) % MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t ClockTime) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ClockTime) UnmarshalText(text []byte) error {
	parsed, err := ParseClockTime(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type Act struct {
	ID        string          `json:"id"`
	ArtistID  string          `json:"artist_id,omitempty"`
	Artist    *FestivalArtist `json:"artist,omitempty"`
	StageName string          `json:"stage_name"`
	Start     ClockTime       `json:"start_time"`
	End       ClockTime       `json:"end_time"`
	Day       string          `json:"day"`
}

// CrossesMidnight reports whether the act ends on the following calendar day.
func (a Act) CrossesMidnight() bool {
	return a.End < a.Start
}

type Stage struct {
	Name string `json:"name"`
	Acts []Act  `json:"acts"`
}

type FestivalDay struct {
	Date   string    `json:"date"`
	Start  ClockTime `json:"start_time"`
	End    ClockTime `json:"end_time"`
	Stages []Stage   `json:"stages"`
}

// Span returns the day's operating hours as offsets from the opening time's
// midnight. A closing time at or before the opening time falls on the next
// calendar day.
func (d FestivalDay) Span() (int, int) {
	openAt, closeAt := int(d.Start), int(d.End)
	if closeAt <= openAt {
		closeAt += MinutesPerDay
	}
	return openAt, closeAt
}

type Catalog struct {
	FestivalID string           `json:"festival_id"`
	Name       string           `json:"name"`
	Version    string           `json:"version"`
	Days       []FestivalDay    `json:"days"`
	Artists    []FestivalArtist `json:"artists"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type FestivalSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Days      int       `json:"days"`
	UpdatedAt time.Time `json:"updated_at"`
}

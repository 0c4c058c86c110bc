package matching

import (
	"github.com/yair/lineup/pkg/domain"
)

// CatalogIndex is a read-only view over a festival catalog, built once per
// request and shared by the resolver, scorer and allocator.
type CatalogIndex struct {
	artists    []domain.FestivalArtist
	byID       map[string]int
	byPlatform map[string]int
	days       []indexedDay
	dayByDate  map[string]int
}

type indexedDay struct {
	day     domain.FestivalDay
	openAt  int
	closeAt int
	acts    []indexedAct
}

// indexedAct carries the act's interval in minutes from the opening day's
// midnight, so overnight acts compare correctly against slots.
type indexedAct struct {
	act    domain.Act
	artist int
	start  int
	end    int
}

// NewCatalogIndex flattens days → stages → acts. Artists are deduplicated by
// internal id: the catalog's artist list comes first, then artists embedded in
// acts that the list does not already know about.
func NewCatalogIndex(catalog *domain.Catalog) *CatalogIndex {
	idx := &CatalogIndex{
		byID:       make(map[string]int),
		byPlatform: make(map[string]int),
		dayByDate:  make(map[string]int),
	}
	if catalog == nil {
		return idx
	}

	for _, a := range catalog.Artists {
		idx.addArtist(a)
	}
	for _, day := range catalog.Days {
		for _, stage := range day.Stages {
			for _, act := range stage.Acts {
				if act.Artist != nil {
					idx.addArtist(*act.Artist)
				}
			}
		}
	}

	for _, day := range catalog.Days {
		if _, dup := idx.dayByDate[day.Date]; !dup {
			idx.dayByDate[day.Date] = len(idx.days)
		}
		idx.days = append(idx.days, idx.indexDay(day))
	}

	return idx
}

func (c *CatalogIndex) addArtist(a domain.FestivalArtist) {
	if a.ID == "" {
		return
	}
	if _, ok := c.byID[a.ID]; ok {
		return
	}
	c.byID[a.ID] = len(c.artists)
	if a.HasPlatformID() {
		if _, taken := c.byPlatform[a.PlatformID]; !taken {
			c.byPlatform[a.PlatformID] = len(c.artists)
		}
	}
	c.artists = append(c.artists, a)
}

func (c *CatalogIndex) indexDay(day domain.FestivalDay) indexedDay {
	openAt, closeAt := day.Span()
	d := indexedDay{day: day, openAt: openAt, closeAt: closeAt}

	for _, stage := range day.Stages {
		for _, act := range stage.Acts {
			if act.StageName == "" {
				act.StageName = stage.Name
			}
			if act.Day == "" {
				act.Day = day.Date
			}
			start := d.offset(act.Start)
			d.acts = append(d.acts, indexedAct{
				act:    act,
				artist: c.artistIndexForAct(act),
				start:  start,
				end:    start + duration(act.Start, act.End),
			})
		}
	}

	return d
}

func (c *CatalogIndex) artistIndexForAct(act domain.Act) int {
	id := act.ArtistID
	if id == "" && act.Artist != nil {
		id = act.Artist.ID
	}
	if i, ok := c.byID[id]; ok && id != "" {
		return i
	}
	return -1
}

// offset places a clock time on the day's timeline. Times before opening
// belong to the small hours after midnight when that keeps them inside the
// operating span.
func (d indexedDay) offset(t domain.ClockTime) int {
	m := int(t)
	if m < d.openAt && m+domain.MinutesPerDay < d.closeAt {
		return m + domain.MinutesPerDay
	}
	return m
}

func duration(start, end domain.ClockTime) int {
	return ((int(end)-int(start))%domain.MinutesPerDay + domain.MinutesPerDay) % domain.MinutesPerDay
}

// window converts a clock-time range into day offsets. An end before the
// start wraps past midnight.
func (d indexedDay) window(start, end domain.ClockTime) (int, int) {
	s := d.offset(start)
	length := duration(start, end)
	return s, s + length
}

func (d indexedDay) overlapping(start, end int) []indexedAct {
	var out []indexedAct
	for _, a := range d.acts {
		if a.start < end && a.end > start {
			out = append(out, a)
		}
	}
	return out
}

// AllArtists returns every festival artist once, in first-seen order.
func (c *CatalogIndex) AllArtists() []domain.FestivalArtist {
	out := make([]domain.FestivalArtist, len(c.artists))
	copy(out, c.artists)
	return out
}

func (c *CatalogIndex) Artist(id string) (domain.FestivalArtist, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.FestivalArtist{}, false
	}
	return c.artists[i], true
}

func (c *CatalogIndex) ArtistByPlatformID(platformID string) (domain.FestivalArtist, bool) {
	i, ok := c.byPlatform[platformID]
	if !ok {
		return domain.FestivalArtist{}, false
	}
	return c.artists[i], true
}

// ArtistForAct resolves an act's artist reference. Dangling references
// resolve to no artist.
func (c *CatalogIndex) ArtistForAct(act domain.Act) (domain.FestivalArtist, bool) {
	i := c.artistIndexForAct(act)
	if i < 0 {
		return domain.FestivalArtist{}, false
	}
	return c.artists[i], true
}

func (c *CatalogIndex) Days() []domain.FestivalDay {
	out := make([]domain.FestivalDay, len(c.days))
	for i, d := range c.days {
		out[i] = d.day
	}
	return out
}

// ActsInWindow returns the day's acts overlapping [start, end) in stage order.
// Unknown days yield nil.
func (c *CatalogIndex) ActsInWindow(day string, start, end domain.ClockTime) []domain.Act {
	i, ok := c.dayByDate[day]
	if !ok {
		return nil
	}
	d := c.days[i]
	s, e := d.window(start, end)

	var out []domain.Act
	for _, a := range d.overlapping(s, e) {
		out = append(out, c.resolvedAct(a))
	}
	return out
}

// resolvedAct returns the act with its artist reference filled from the
// index, or cleared when the reference dangles.
func (c *CatalogIndex) resolvedAct(a indexedAct) domain.Act {
	act := a.act
	if a.artist < 0 {
		act.Artist = nil
		return act
	}
	artist := c.artists[a.artist]
	act.ArtistID = artist.ID
	act.Artist = &artist
	return act
}

func (c *CatalogIndex) lookupDay(day domain.FestivalDay) indexedDay {
	if i, ok := c.dayByDate[day.Date]; ok && day.Date != "" {
		return c.days[i]
	}
	return c.indexDay(day)
}

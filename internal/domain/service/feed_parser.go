// Package service provides implementations of domain services that implement core business logic
// This package depends only on domain models and repository interfaces (not implementations)
package service

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/rahulNinjatech/fever/internal/domain/model"
)

// MalformedFeedError reports provider content that cannot be turned into a
// complete candidate set: broken XML, a missing or unparsable attribute, or an
// event with no zones. The whole parse pass is discarded when it occurs.
type MalformedFeedError struct {
	Reason string
	Err    error
}

func (e *MalformedFeedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed feed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed feed: %s", e.Reason)
}

func (e *MalformedFeedError) Unwrap() error { return e.Err }

// Feed document shapes. Everything the provider sends is attribute-carried.
type feedDocument struct {
	BaseEvents []feedBaseEvent `xml:"output>base_event"`
}

type feedBaseEvent struct {
	BaseEventID string      `xml:"base_event_id,attr"`
	SellMode    string      `xml:"sell_mode,attr"`
	Title       string      `xml:"title,attr"`
	Events      []feedEvent `xml:"event"`
}

type feedEvent struct {
	EventID   string     `xml:"event_id,attr"`
	StartDate string     `xml:"event_start_date,attr"`
	EndDate   string     `xml:"event_end_date,attr"`
	Zones     []feedZone `xml:"zone"`
}

type feedZone struct {
	Price string `xml:"price,attr"`
}

// FeedParser turns raw provider XML into candidate events keyed by their
// composite "{base_event_id}_{event_id}" string.
type FeedParser struct {
	log *slog.Logger
}

func NewFeedParser(log *slog.Logger) *FeedParser {
	return &FeedParser{log: log}
}

// Parse normalizes one feed snapshot. Base events with sell_mode "offline" are
// skipped entirely, nested events included. Duplicate composite keys within the
// same snapshot overwrite silently; the last parsed one wins. Any malformed
// element fails the whole pass, so partial candidate sets are never returned.
func (p *FeedParser) Parse(raw []byte) (map[string]model.CandidateEvent, error) {
	var doc feedDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, &MalformedFeedError{Reason: "unparsable document", Err: err}
	}

	candidates := make(map[string]model.CandidateEvent)
	for _, base := range doc.BaseEvents {
		if base.SellMode == "offline" {
			p.log.Debug("skipping offline base event", "title", base.Title, "base_event_id", base.BaseEventID)
			continue
		}

		baseEventID, err := strconv.ParseInt(base.BaseEventID, 10, 64)
		if err != nil {
			return nil, &MalformedFeedError{Reason: "invalid base_event_id", Err: err}
		}

		for _, ev := range base.Events {
			candidate, err := p.parseEvent(baseEventID, base.Title, ev)
			if err != nil {
				return nil, err
			}
			candidates[candidate.CompositeKey()] = candidate
		}
	}

	return candidates, nil
}

func (p *FeedParser) parseEvent(baseEventID int64, title string, ev feedEvent) (model.CandidateEvent, error) {
	eventID, err := strconv.ParseInt(ev.EventID, 10, 64)
	if err != nil {
		return model.CandidateEvent{}, &MalformedFeedError{Reason: "invalid event_id", Err: err}
	}

	startTime, err := model.ParseTimestamp(ev.StartDate)
	if err != nil {
		return model.CandidateEvent{}, &MalformedFeedError{Reason: "invalid event_start_date", Err: err}
	}
	endTime, err := model.ParseTimestamp(ev.EndDate)
	if err != nil {
		return model.CandidateEvent{}, &MalformedFeedError{Reason: "invalid event_end_date", Err: err}
	}

	if len(ev.Zones) == 0 {
		return model.CandidateEvent{}, &MalformedFeedError{
			Reason: fmt.Sprintf("event %d_%d has no zones", baseEventID, eventID),
		}
	}

	minPrice, maxPrice, err := priceRange(ev.Zones)
	if err != nil {
		return model.CandidateEvent{}, err
	}

	return model.CandidateEvent{
		BaseEventID: baseEventID,
		EventID:     eventID,
		Title:       title,
		StartTime:   startTime,
		EndTime:     endTime,
		MinPrice:    minPrice,
		MaxPrice:    maxPrice,
	}, nil
}

// priceRange derives min/max over the zone prices using exact decimal
// arithmetic; binary floats would drift on values like 19.99.
func priceRange(zones []feedZone) (decimal.Decimal, decimal.Decimal, error) {
	var minPrice, maxPrice decimal.Decimal
	for i, zone := range zones {
		price, err := decimal.NewFromString(zone.Price)
		if err != nil {
			return decimal.Decimal{}, decimal.Decimal{}, &MalformedFeedError{Reason: "invalid zone price", Err: err}
		}
		if i == 0 {
			minPrice, maxPrice = price, price
			continue
		}
		if price.LessThan(minPrice) {
			minPrice = price
		}
		if price.GreaterThan(maxPrice) {
			maxPrice = price
		}
	}
	return minPrice, maxPrice, nil
}

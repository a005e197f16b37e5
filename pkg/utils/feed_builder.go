// Package utils provides test-data helpers shared by tests and demos.
package utils

import "encoding/xml"

// FeedBuilder assembles provider-shaped XML feeds programmatically so tests
// don't have to carry raw fixture strings.
type FeedBuilder struct {
	doc feedDoc
}

type feedDoc struct {
	XMLName xml.Name   `xml:"eventList"`
	Output  feedOutput `xml:"output"`
}

type feedOutput struct {
	BaseEvents []BaseEvent `xml:"base_event"`
}

// BaseEvent mirrors one provider base_event element.
type BaseEvent struct {
	BaseEventID int64   `xml:"base_event_id,attr"`
	SellMode    string  `xml:"sell_mode,attr"`
	Title       string  `xml:"title,attr"`
	Events      []Event `xml:"event"`
}

// Event mirrors one provider event element.
type Event struct {
	EventID   int64  `xml:"event_id,attr"`
	StartDate string `xml:"event_start_date,attr"`
	EndDate   string `xml:"event_end_date,attr"`
	Zones     []Zone `xml:"zone"`
}

// Zone mirrors one provider zone element. Price stays a string so tests
// control the exact decimal text on the wire.
type Zone struct {
	Price string `xml:"price,attr"`
}

func NewFeedBuilder() *FeedBuilder {
	return &FeedBuilder{}
}

// AddBaseEvent appends a base event to the feed being built.
func (b *FeedBuilder) AddBaseEvent(base BaseEvent) *FeedBuilder {
	b.doc.Output.BaseEvents = append(b.doc.Output.BaseEvents, base)
	return b
}

// Build renders the feed as provider XML.
func (b *FeedBuilder) Build() ([]byte, error) {
	body, err := xml.Marshal(b.doc)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

package event

import (
	"fmt"
	"image"
	"sort"
	"strings"
	"time"

	"github.com/hectorgimenez/beltkeeper/internal/consumable"
)

type Event interface {
	Message() string
	Image() image.Image
	OccurredAt() time.Time
	Supervisor() string
}

type BaseEvent struct {
	message    string
	image      image.Image
	occurredAt time.Time
	supervisor string
}

func (b BaseEvent) Message() string {
	return b.message
}

func (b BaseEvent) Image() image.Image {
	return b.image
}

func (b BaseEvent) OccurredAt() time.Time {
	return b.occurredAt
}

func (b BaseEvent) Supervisor() string {
	return b.supervisor
}

func Text(supervisor, message string) BaseEvent {
	return BaseEvent{
		message:    message,
		occurredAt: time.Now(),
		supervisor: supervisor,
	}
}

func WithScreenshot(supervisor, message string, img image.Image) BaseEvent {
	return BaseEvent{
		message:    message,
		image:      img,
		occurredAt: time.Now(),
		supervisor: supervisor,
	}
}

type Source string

const (
	SourceBelt      Source = "belt"
	SourceInventory Source = "inventory"
	SourceRefresh   Source = "refresh"
)

type ScanCompletedEvent struct {
	BaseEvent
	Source Source
	Needs  map[consumable.Kind]int
}

func ScanCompleted(be BaseEvent, source Source, needs map[consumable.Kind]int) ScanCompletedEvent {
	if be.message == "" {
		be.message = fmt.Sprintf("Consumable needs after %s scan: %s", source, FormatNeeds(needs))
	}

	return ScanCompletedEvent{BaseEvent: be, Source: source, Needs: needs}
}

type RestockNeededEvent struct {
	BaseEvent
	Kind     consumable.Kind
	Quantity int
}

func RestockNeeded(be BaseEvent, kind consumable.Kind, quantity int) RestockNeededEvent {
	if be.message == "" {
		be.message = fmt.Sprintf("Need to buy %d %s", quantity, kind)
	}

	return RestockNeededEvent{BaseEvent: be, Kind: kind, Quantity: quantity}
}

type UsedPotionEvent struct {
	BaseEvent
	Kind   consumable.Kind
	OnMerc bool
}

func UsedPotion(be BaseEvent, kind consumable.Kind, onMerc bool) UsedPotionEvent {
	return UsedPotionEvent{BaseEvent: be, Kind: kind, OnMerc: onMerc}
}

// FormatNeeds renders needs in canonical kind order, unknown kinds last.
func FormatNeeds(needs map[consumable.Kind]int) string {
	parts := make([]string, 0, len(needs))
	seen := make(map[consumable.Kind]bool, len(needs))
	for _, k := range consumable.Kinds() {
		if v, found := needs[k]; found {
			parts = append(parts, fmt.Sprintf("%s=%d", k, v))
			seen[k] = true
		}
	}
	var rest []string
	for k, v := range needs {
		if !seen[k] {
			rest = append(rest, fmt.Sprintf("%s=%d", k, v))
		}
	}
	sort.Strings(rest)

	return strings.Join(append(parts, rest...), " ")
}

package payload

import (
	"fmt"
	"strconv"

	"github.com/xraph/logrelay/event"
	"github.com/xraph/logrelay/filter"
	"github.com/xraph/logrelay/id"
	"github.com/xraph/logrelay/scope"
)

// Size limits of the webhook API, minus a safety margin for markup.
const (
	MaxDescriptionChars = 2048 - 15
	MaxFieldValueChars  = 1024 - 15
	MaxFieldNameChars   = 256
	MaxTitleChars       = 256
	MaxFooterChars      = 2048
	MaxFields           = 25
	MaxEmbedChars       = 6000
)

// Fixed display strings.
const (
	FallbackHeading = filter.FallbackHeading
	SourceUnknown   = "Unknown"
	FieldTargetSpan = "Target Span"
	FieldSource     = "Source"
	FieldMetadata   = "Metadata"
	FieldOmitted    = "More fields"
)

// Layout selects how event and scope fields are rendered.
type Layout int

const (
	// LayoutFields renders one embed field per event or scope field.
	LayoutFields Layout = iota

	// LayoutMetadata renders all fields as a single JSON blob, split into
	// numbered chunks when it does not fit in one embed field.
	LayoutMetadata
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case LayoutFields:
		return "fields"
	case LayoutMetadata:
		return "metadata"
	default:
		return "layout(" + strconv.Itoa(int(l)) + ")"
	}
}

// ParseLayout parses "fields" or "metadata". Empty means LayoutFields.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "", "fields":
		return LayoutFields, nil
	case "metadata":
		return LayoutMetadata, nil
	default:
		return 0, fmt.Errorf("payload: invalid layout %q", s)
	}
}

// FormatterConfig configures a Formatter. It is copied at construction.
type FormatterConfig struct {
	// AppName prefixes the embed title and is the footer text.
	AppName string

	// WebhookURL is stamped on every message.
	WebhookURL string

	// ThumbnailURL, when set, is shown on every embed.
	ThumbnailURL string

	// Layout selects the field rendering.
	Layout Layout

	// Mention is sent as plain content for events at MentionLevel or above.
	Mention      string
	MentionLevel event.Level

	// Chain filters events before formatting. Nil accepts everything.
	Chain *filter.Chain
}

// Formatter builds messages from events. It holds only immutable
// configuration and is safe for concurrent use.
type Formatter struct {
	cfg FormatterConfig
}

// NewFormatter creates a formatter.
func NewFormatter(cfg FormatterConfig) *Formatter {
	return &Formatter{cfg: cfg}
}

// Format filters evt and, when accepted, converts it together with its
// enclosing scope into a message. sc may be nil. A nil message is returned
// with the rejection reason when the filter chain rejects the event. Format
// performs no I/O.
func (f *Formatter) Format(evt *event.Event, sc *scope.Scope) (*Message, filter.Reason) {
	heading, headingKey := evt.Heading()
	if headingKey == "" {
		heading = FallbackHeading
	}
	if reason := f.cfg.Chain.Check(evt, heading, headingKey); reason != filter.Accepted {
		return nil, reason
	}

	spanName := ""
	if sc != nil {
		spanName = sc.Name
	}
	file := evt.File
	if file == "" {
		file = SourceUnknown
	}

	embed := Embed{
		Title:       title(f.cfg.AppName, evt.Level),
		Description: Truncate(heading, MaxDescriptionChars),
		Fields: []Field{
			{
				Name:   FieldTargetSpan,
				Value:  code(evt.Target + "::" + spanName),
				Inline: true,
			},
			{
				Name:   FieldSource,
				Value:  code(file + "#L" + strconv.Itoa(evt.Line)),
				Inline: true,
			},
		},
		Footer: Footer{Text: Truncate(f.cfg.AppName, MaxFooterChars)},
		Color:  evt.Level.Color(),
	}
	if f.cfg.ThumbnailURL != "" {
		embed.Thumbnail = &Thumbnail{URL: f.cfg.ThumbnailURL}
	}

	attrs := f.attributes(evt, headingKey, sc)

	var extra []Field
	switch f.cfg.Layout {
	case LayoutMetadata:
		extra = metadataFields(attrs)
	default:
		extra = attributeFields(attrs)
	}
	embed.Fields = fitFields(embed.Fields, extra, MaxEmbedChars-embedChars(embed))

	msg := &Message{
		ID:         id.NewMessageID(),
		Embeds:     []Embed{embed},
		WebhookURL: f.cfg.WebhookURL,
	}
	if f.cfg.Mention != "" && evt.Level >= f.cfg.MentionLevel {
		msg.Content = f.cfg.Mention
	}
	return msg, filter.Accepted
}

// attributes collects the fields to display: event fields in order minus
// the heading field and excluded keys, then scope fields in order.
func (f *Formatter) attributes(evt *event.Event, headingKey string, sc *scope.Scope) []event.Field {
	n := len(evt.Fields)
	if sc != nil {
		n += len(sc.Fields)
	}
	out := make([]event.Field, 0, n)

	consumed := false
	for _, field := range evt.Fields {
		if !consumed && headingKey != "" && field.Key == headingKey {
			consumed = true
			continue
		}
		if f.cfg.Chain.Excluded(field.Key) {
			continue
		}
		out = append(out, field)
	}
	if sc != nil {
		out = append(out, sc.Fields...)
	}
	return out
}

func attributeFields(attrs []event.Field) []Field {
	out := make([]Field, 0, len(attrs))
	for _, a := range attrs {
		name := a.Key
		if name == "" {
			name = "(empty)"
		}
		value := Render(a.Value)
		if value == "" {
			value = `""`
		}
		out = append(out, Field{
			Name:   Truncate(name, MaxFieldNameChars),
			Value:  Truncate(value, MaxFieldValueChars),
			Inline: true,
		})
	}
	return out
}

func metadataFields(attrs []event.Field) []Field {
	if len(attrs) == 0 {
		return nil
	}

	blob := metadataJSON(attrs)
	chunks := Chunk(blob, MaxFieldValueChars)
	if len(chunks) == 1 {
		return []Field{{Name: FieldMetadata, Value: codeBlock(blob)}}
	}

	out := make([]Field, 0, len(chunks))
	for i, c := range chunks {
		out = append(out, Field{
			Name:  fmt.Sprintf("%s (%d)", FieldMetadata, i+1),
			Value: codeBlock(c),
		})
	}
	return out
}

// fitFields appends extra to base while respecting the field count cap and
// the remaining character budget. Trailing fields that do not fit are
// replaced by a single notice field.
func fitFields(base, extra []Field, budget int) []Field {
	omitted := 0
	for len(extra) > 0 {
		count := len(base) + len(extra)
		size := fieldChars(extra)
		if omitted > 0 {
			count++
			size += fieldChars([]Field{omittedField(omitted)})
		}
		if count <= MaxFields && size <= budget {
			break
		}
		extra = extra[:len(extra)-1]
		omitted++
	}

	out := make([]Field, 0, len(base)+len(extra)+1)
	out = append(out, base...)
	out = append(out, extra...)
	if omitted > 0 {
		out = append(out, omittedField(omitted))
	}
	return out
}

// title shortens the app name so the level suffix always fits.
func title(app string, level event.Level) string {
	suffix := fmt.Sprintf(" - %s %s", level.Emoji(), level)
	return Truncate(app, MaxTitleChars-runeLen(suffix)) + suffix
}

func omittedField(n int) Field {
	return Field{Name: FieldOmitted, Value: fmt.Sprintf("%d more fields omitted", n)}
}

func embedChars(e Embed) int {
	return runeLen(e.Title) + runeLen(e.Description) + runeLen(e.Footer.Text) + fieldChars(e.Fields)
}

func fieldChars(fields []Field) int {
	n := 0
	for _, f := range fields {
		n += runeLen(f.Name) + runeLen(f.Value)
	}
	return n
}

func code(s string) string {
	return "`" + Truncate(s, MaxFieldValueChars) + "`"
}

func codeBlock(s string) string {
	return "```json\n" + s + "\n```"
}

// Package artifact renders day snapshots into a one-page PNG journal.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/benvon/daily-journal/internal/journal"
	"github.com/benvon/daily-journal/internal/models"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/mozillazg/go-unidecode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// ContentType of every rendered journal
const ContentType = "image/png"

const (
	pageWidth  = 612
	pageHeight = 792
	margin     = 40.0
	columnGap  = 24.0
	lineSpace  = 1.4
)

// Renderer draws journals with gg. Without a TrueType font it falls back to
// the built-in 7x13 bitmap face, which only covers ASCII, and transliterates
// text before drawing.
type Renderer struct {
	body    font.Face
	heading font.Face
	ascii   bool
}

var _ journal.Generator = (*Renderer)(nil)

// NewRenderer loads the font at fontPath; an empty path selects the built-in face
func NewRenderer(fontPath string) (*Renderer, error) {
	if strings.TrimSpace(fontPath) == "" {
		return &Renderer{body: basicfont.Face7x13, heading: basicfont.Face7x13, ascii: true}, nil
	}
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return &Renderer{
		body:    truetype.NewFace(parsed, &truetype.Options{Size: 11, DPI: 72, Hinting: font.HintingNone}),
		heading: truetype.NewFace(parsed, &truetype.Options{Size: 16, DPI: 72, Hinting: font.HintingNone}),
	}, nil
}

// Filename names the artifact after the user and the day, e.g. "Ann 08_03_2024.png"
func Filename(snap *models.DaySnapshot) string {
	name := strings.TrimSpace(snap.DisplayName)
	if name == "" {
		name = "journal"
	}
	return fmt.Sprintf("%s %s.png", name, snap.Day.Time().Format("02_01_2006"))
}

// Generate implements journal.Generator
func (r *Renderer) Generate(ctx context.Context, snap *models.DaySnapshot) (*journal.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("nil day snapshot")
	}

	dc := gg.NewContext(pageWidth, pageHeight)
	dc.SetHexColor("#fffdf7")
	dc.Clear()

	r.drawHeader(dc, snap)

	colWidth := (pageWidth - 2*margin - columnGap) / 2
	left, right := margin, margin+colWidth+columnGap
	top, middle, bottom := 150.0, 470.0, float64(pageHeight)-70

	r.drawSection(dc, "Tasks", r.taskLines(snap.Tasks), left, top, colWidth, middle-20)
	r.drawSection(dc, "Notes", r.noteLines(snap.Notes), right, top, colWidth, middle-20)
	r.drawSection(dc, "Habits", r.habitLines(snap.Habits), left, middle, colWidth, bottom)
	if snap.Quote != nil {
		r.drawSection(dc, "Quote of the day", []string{snap.Quote.Text}, right, middle, colWidth, bottom)
	}

	if snap.FreeTextStatus != nil && *snap.FreeTextStatus != "" {
		dc.SetFontFace(r.body)
		dc.SetHexColor("#555555")
		dc.DrawString(r.text("Status: "+*snap.FreeTextStatus), margin, float64(pageHeight)-36)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return &journal.Artifact{Filename: Filename(snap), ContentType: ContentType, Data: buf.Bytes()}, nil
}

func (r *Renderer) drawHeader(dc *gg.Context, snap *models.DaySnapshot) {
	dc.SetHexColor("#2b3a55")
	dc.DrawRectangle(0, 0, pageWidth, 110)
	dc.Fill()

	dc.SetFontFace(r.heading)
	dc.SetHexColor("#ffffff")
	title := "Daily Journal"
	if snap.DisplayName != "" {
		title = snap.DisplayName + "'s Daily Journal"
	}
	dc.DrawString(r.text(title), margin, 48)

	dc.SetFontFace(r.body)
	dc.DrawString(snap.Day.Time().Format("02 / Jan / 2006   (Mon)"), margin, 78)

	var stats []string
	if snap.Mood != nil {
		mood := fmt.Sprintf("Mood: %d/10", snap.Mood.Score)
		if !r.ascii {
			mood = "Mood: " + snap.Mood.Emoji + fmt.Sprintf(" (%d/10)", snap.Mood.Score)
		}
		stats = append(stats, mood)
	}
	if snap.Rating != nil {
		stats = append(stats, fmt.Sprintf("Rating: %d/10", snap.Rating.Score))
	}
	if len(stats) > 0 {
		dc.DrawStringAnchored(strings.Join(stats, "   "), pageWidth-margin, 78, 1, 0)
	}
}

// drawSection writes a titled, word-wrapped list between y and maxY, eliding
// whatever does not fit
func (r *Renderer) drawSection(dc *gg.Context, title string, lines []string, x, y, width, maxY float64) {
	dc.SetFontFace(r.heading)
	dc.SetHexColor("#2b3a55")
	dc.DrawString(title, x, y)
	dc.SetLineWidth(1)
	dc.DrawLine(x, y+6, x+width, y+6)
	dc.Stroke()

	dc.SetFontFace(r.body)
	dc.SetHexColor("#222222")
	step := dc.FontHeight() * lineSpace
	cursor := y + 6 + step
	for _, line := range lines {
		for i, wrapped := range dc.WordWrap(r.text(line), width-12) {
			if cursor+step > maxY {
				dc.DrawString("...", x, cursor)
				return
			}
			indent := 0.0
			if i > 0 {
				indent = 12
			}
			dc.DrawString(wrapped, x+indent, cursor)
			cursor += step
		}
	}
}

func (r *Renderer) bullet() string {
	if r.ascii {
		return "* "
	}
	return "●  "
}

func (r *Renderer) tick(at *string) string {
	clock := "N/A"
	if at != nil {
		clock = *at
	}
	if r.ascii {
		return fmt.Sprintf(" [done %s]", clock)
	}
	return fmt.Sprintf(" ✔  (%s)", clock)
}

// taskLines lists completed tasks first, then pending ones
func (r *Renderer) taskLines(tasks []*models.Task) []string {
	pending, completed := models.SplitTasks(tasks)
	lines := make([]string, 0, len(tasks))
	for _, t := range completed {
		lines = append(lines, r.bullet()+t.Description+r.tick(t.CompletedAt))
	}
	for _, t := range pending {
		lines = append(lines, r.bullet()+t.Description)
	}
	return lines
}

func (r *Renderer) habitLines(habits []*models.Habit) []string {
	pending, completed := models.SplitHabits(habits)
	lines := make([]string, 0, len(habits))
	for _, h := range completed {
		lines = append(lines, r.bullet()+h.Description+r.tick(h.CompletedAt))
	}
	for _, h := range pending {
		lines = append(lines, r.bullet()+h.Description)
	}
	return lines
}

func (r *Renderer) noteLines(notes []*models.Note) []string {
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, fmt.Sprintf("%s%s    (%s)", r.bullet(), n.Content, n.CreatedAt))
	}
	return lines
}

// text prepares s for the active face
func (r *Renderer) text(s string) string {
	if r.ascii {
		return unidecode.Unidecode(s)
	}
	return s
}

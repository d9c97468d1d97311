// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tabs

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/ui/styles"
	"github.com/jeranaias/agentroom/internal/util"
)

// Analysis delays.
const (
	AutoAnalyzeDelay   = 3 * time.Second
	ManualAnalyzeDelay = 2 * time.Second
)

// ResultCapacity bounds the analysis history.
const ResultCapacity = 20

// ErrNoFile is returned for an unknown file ID.
var ErrNoFile = errors.New("no such file")

// Canned analysis texts, picked at random.
var Analyses = []string{
	"Good form overall! Focus on maintaining proper alignment during the movement.",
	"Excellent technique! Consider adding more weight to challenge yourself.",
	"Form needs improvement. Focus on keeping your core engaged throughout the movement.",
	"Great progress! Your form has improved significantly since the last analysis.",
	"Pay attention to your breathing pattern. Try to exhale during the exertion phase.",
}

// FileStatus is a file's analysis state.
type FileStatus string

const (
	FileUploaded  FileStatus = "uploaded"
	FileAnalyzing FileStatus = "analyzing"
	FileAnalyzed  FileStatus = "analyzed"
)

// File is one "uploaded" media file. Nothing is copied; the panel only
// records metadata.
type File struct {
	ID     int
	Name   string
	Path   string
	MIME   string
	Size   int64
	Added  time.Time
	Status FileStatus
}

// Analysis is one canned result.
type Analysis struct {
	FileID   int
	FileName string
	Text     string
	At       time.Time
}

// FileIcon picks a glyph by MIME type.
func FileIcon(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return "🎥"
	case strings.HasPrefix(mimeType, "image/"):
		return "📸"
	default:
		return "📄"
	}
}

// DetectMIME guesses a file's type from its extension, then its content.
func DetectMIME(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	f, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	return http.DetectContentType(head[:n])
}

type analysisDoneMsg struct{ id int }

// VideoPanel is the mocked upload-and-analyze tab.
type VideoPanel struct {
	theme   *styles.Theme
	rng     *rand.Rand
	now     func() time.Time
	nextID  int
	files   []File
	results *model.Ring[Analysis]
}

// NewVideoPanel creates an empty panel.
func NewVideoPanel(theme *styles.Theme, rng *rand.Rand) *VideoPanel {
	return &VideoPanel{
		theme:   theme,
		rng:     rng,
		now:     time.Now,
		nextID:  1,
		results: model.NewRing[Analysis](ResultCapacity),
	}
}

func (p *VideoPanel) ID() string    { return IDVideo }
func (p *VideoPanel) Title() string { return "Video Analysis" }
func (p *VideoPanel) Icon() string  { return "📹" }

func (p *VideoPanel) Init() tea.Cmd { return nil }

// Files returns the file list.
func (p *VideoPanel) Files() []File { return append([]File(nil), p.files...) }

// Results returns the analyses, oldest first.
func (p *VideoPanel) Results() []Analysis { return p.results.Items() }

// AddFile records path and schedules its automatic analysis.
func (p *VideoPanel) AddFile(path string) (File, tea.Cmd, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return File{}, nil, errors.New("path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return File{}, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, nil, fmt.Errorf("%s is a directory", path)
	}

	f := File{
		ID:     p.nextID,
		Name:   filepath.Base(path),
		Path:   path,
		MIME:   DetectMIME(path),
		Size:   info.Size(),
		Added:  p.now(),
		Status: FileUploaded,
	}
	p.nextID++
	p.files = append(p.files, f)
	return f, analyzeAfter(f.ID, AutoAnalyzeDelay), nil
}

// Analyze re-runs the analysis of a file.
func (p *VideoPanel) Analyze(id int) (tea.Cmd, error) {
	f := p.find(id)
	if f == nil {
		return nil, ErrNoFile
	}
	f.Status = FileAnalyzing
	return analyzeAfter(id, ManualAnalyzeDelay), nil
}

// Delete removes a file. A pending analysis for it is dropped.
func (p *VideoPanel) Delete(id int) error {
	for i := range p.files {
		if p.files[i].ID == id {
			p.files = append(p.files[:i], p.files[i+1:]...)
			return nil
		}
	}
	return ErrNoFile
}

func (p *VideoPanel) find(id int) *File {
	for i := range p.files {
		if p.files[i].ID == id {
			return &p.files[i]
		}
	}
	return nil
}

func analyzeAfter(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return analysisDoneMsg{id: id} })
}

func (p *VideoPanel) Update(msg tea.Msg) tea.Cmd {
	done, ok := msg.(analysisDoneMsg)
	if !ok {
		return nil
	}
	f := p.find(done.id)
	if f == nil {
		return nil
	}
	f.Status = FileAnalyzed
	p.results.Push(Analysis{
		FileID:   f.ID,
		FileName: f.Name,
		Text:     Analyses[p.rng.Intn(len(Analyses))],
		At:       p.now(),
	})
	return nil
}

func (p *VideoPanel) View(width, height int) string {
	t := p.theme
	var b strings.Builder

	b.WriteString(t.PanelTitle.Render("Uploaded Files") + "\n")
	if len(p.files) == 0 {
		b.WriteString(t.Placeholder.Render("No files uploaded yet. Use /upload <path> to add videos or photos.") + "\n")
	}
	for _, f := range p.files {
		status := t.Muted
		switch f.Status {
		case FileAnalyzing:
			status = t.Warning
		case FileAnalyzed:
			status = t.Success
		}
		name := util.TruncateWidth(f.Name, max(10, width-40))
		b.WriteString(fmt.Sprintf("%s #%d %s %s %s %s\n",
			FileIcon(f.MIME), f.ID, name,
			t.Muted.Render(util.FormatFileSize(f.Size)),
			t.Timestamp.Render(f.Added.Format("15:04:05")),
			status.Render(string(f.Status))))
	}

	b.WriteString("\n" + t.PanelTitle.Render("Analysis Results") + "\n")
	results := p.results.Items()
	if len(results) == 0 {
		b.WriteString(t.Placeholder.Render("Upload files to see analysis results and AI recommendations."))
	}
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		b.WriteString(fmt.Sprintf("%s %s\n  %s\n", t.CardTitle.Render(r.FileName), t.Timestamp.Render(r.At.Format("15:04:05")), r.Text))
	}
	return fitLines(strings.TrimRight(b.String(), "\n"), width, height)
}

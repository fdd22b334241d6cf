package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/moffa90/go-stm32boot/bootloader"
	"github.com/moffa90/go-stm32boot/firmware"
)

// progressMsg carries a progress update from the download goroutine
type progressMsg bootloader.Progress

// flashDoneMsg is sent when Program returns
type flashDoneMsg struct {
	err error
}

type flashModel struct {
	bar        progress.Model
	image      *firmware.Image
	linkInfo   string
	last       bootloader.Progress
	cancel     context.CancelFunc
	cancelling bool
	done       bool
	err        error
}

func newFlashModel(img *firmware.Image, linkInfo string, cancel context.CancelFunc) flashModel {
	return flashModel{
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		image:    img,
		linkInfo: linkInfo,
		last:     bootloader.Progress{Phase: bootloader.PhaseInit, TotalBytes: img.Size()},
		cancel:   cancel,
	}
}

func (m flashModel) Init() tea.Cmd {
	return nil
}

func (m flashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			// The download stops at the next packet boundary
			m.cancelling = true
			m.cancel()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), 60)
		return m, nil

	case progressMsg:
		m.last = bootloader.Progress(msg)
		return m, nil

	case flashDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m flashModel) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("STM32 ROM Bootloader Download"))
	s.WriteString("\n\n")
	s.WriteString(field("Image", fmt.Sprintf("%s (%d bytes)", m.image.Name, m.image.Size())) + "\n")
	s.WriteString(field("Link", m.linkInfo) + "\n")
	s.WriteString(field("Phase", string(m.last.Phase)) + "\n\n")

	s.WriteString(m.bar.ViewAs(m.last.Percentage / 100))
	s.WriteString("\n\n")

	p := m.last
	s.WriteString(dimStyle.Render(fmt.Sprintf("packet %d/%d  seq %d  %d/%d bytes  %d exchanges  %s",
		p.Chunk, p.TotalChunks, p.Sequence, p.BytesWritten, p.TotalBytes,
		p.Exchanges, p.ElapsedTime.Round(time.Millisecond))))
	s.WriteString("\n")

	switch {
	case m.done:
	case m.cancelling:
		s.WriteString(warningStyle.Render("cancelling...") + "\n")
	default:
		s.WriteString(dimStyle.Render("q: cancel") + "\n")
	}

	return s.String()
}

// runFlashTUI runs the download in a goroutine and renders its progress.
// It returns once the download has stopped.
func runFlashTUI(ctx context.Context, link Link, linkInfo string, img *firmware.Image, opts []bootloader.Option) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newFlashModel(img, linkInfo, cancel))

	opts = append(opts, bootloader.WithProgressCallback(func(pr bootloader.Progress) {
		p.Send(progressMsg(pr))
	}))
	prog := bootloader.New(link, opts...)

	result := make(chan error, 1)
	go func() {
		err := prog.Program(ctx, img)
		result <- err
		p.Send(flashDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-result
		return fmt.Errorf("TUI error: %w", err)
	}

	cancel()
	return <-result
}

package ui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"wayfarer/internal/model"
	"wayfarer/internal/trip"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type screen int

const (
	screenItinerary screen = iota
	screenTrips
)

type prompt int

const (
	promptNone prompt = iota
	promptDestination
	promptDays
	promptEditName
	promptEditDescription
	promptRename
	promptImportPath
	promptExportPath
)

// eventMsg wraps a manager change notification for the update loop.
type eventMsg struct {
	ev trip.Event
}

// Model is the root Bubble Tea model. It owns no trip state of its own; it
// renders manager snapshots and translates keys into manager operations.
type Model struct {
	mgr  *trip.Manager
	keys KeyMap

	screen screen
	prompt prompt
	input  textinput.Model
	spin   spinner.Model

	snap  trip.Snapshot
	trips []model.Trip

	cursorDay  int
	cursorLoc  int
	tripCursor int

	// Values carried between chained prompts.
	pendingDestination string
	pendingName        string
	editTarget         string

	info   string
	width  int
	height int
}

// New creates the root model.
func New(mgr *trip.Manager) Model {
	ti := textinput.New()
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	return Model{
		mgr:   mgr,
		keys:  DefaultKeyMap(),
		input: ti,
		spin:  sp,
		snap:  mgr.Snapshot(),
		trips: mgr.ListTrips(),
	}
}

// Init starts listening for manager events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listen(), m.spin.Tick)
}

// listen blocks on the manager's event channel and re-arms after each event.
func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		return eventMsg{ev: <-m.mgr.Events()}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case eventMsg:
		m.snap = m.mgr.Snapshot()
		switch msg.ev.Kind {
		case trip.EventPlanLoaded, trip.EventTripReplaced:
			m.screen = screenItinerary
			m.cursorDay, m.cursorLoc = 0, 0
			m.info = ""
		case trip.EventTripListChanged:
			m.trips = m.mgr.ListTrips()
		case trip.EventSaved:
			m.info = "trip saved"
		}
		m.clampCursor()
		return m, m.listen()

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		if key.Matches(msg, m.keys.Quit) {
			m.mgr.Flush()
			return m, tea.Quit
		}
		if m.screen == screenTrips {
			return m.updateTrips(msg)
		}
		return m.updateItinerary(msg)
	}
	return m, nil
}

func (m Model) updateItinerary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Plan):
		return m.openPrompt(promptDestination, "Where to?", ""), textinput.Blink

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.MoveUp):
		if d, ok := m.selectedDay(); ok && m.cursorLoc > 0 {
			m.mgr.MoveLocation(d.Day, m.cursorLoc, m.cursorLoc-1)
			m.cursorLoc--
			m.snap = m.mgr.Snapshot()
		}

	case key.Matches(msg, m.keys.MoveDown):
		if d, ok := m.selectedDay(); ok && m.cursorLoc < len(d.Locations)-1 {
			m.mgr.MoveLocation(d.Day, m.cursorLoc, m.cursorLoc+1)
			m.cursorLoc++
			m.snap = m.mgr.Snapshot()
		}

	case key.Matches(msg, m.keys.MoveToDay):
		if loc, ok := m.selectedLocation(); ok {
			day, _ := strconv.Atoi(msg.String())
			m.mgr.MoveLocationToDay(loc.ID, day)
			m.snap = m.mgr.Snapshot()
			m.clampCursor()
		}

	case key.Matches(msg, m.keys.Edit):
		if loc, ok := m.selectedLocation(); ok {
			m.editTarget = loc.ID
			return m.openPrompt(promptEditName, "Name", loc.Name), textinput.Blink
		}

	case key.Matches(msg, m.keys.Save):
		if len(m.snap.Locations) == 0 {
			m.info = "nothing to save yet"
			return m, nil
		}
		if err := m.mgr.Save(); err != nil {
			m.info = err.Error()
		}

	case key.Matches(msg, m.keys.Export):
		if len(m.snap.Locations) == 0 {
			m.info = "nothing to export yet"
			return m, nil
		}
		m.editTarget = ""
		return m.openPrompt(promptExportPath, "Export to file", defaultExportPath(m.snap.Trip.Destination)), textinput.Blink

	case key.Matches(msg, m.keys.Import):
		return m.openPrompt(promptImportPath, "Import from file", ""), textinput.Blink

	case key.Matches(msg, m.keys.Trips):
		m.screen = screenTrips
		m.trips = m.mgr.ListTrips()
		m.tripCursor = 0
	}
	return m, nil
}

func (m Model) updateTrips(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Trips):
		m.screen = screenItinerary

	case key.Matches(msg, m.keys.Up):
		if m.tripCursor > 0 {
			m.tripCursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.tripCursor < len(m.trips)-1 {
			m.tripCursor++
		}

	case key.Matches(msg, m.keys.Select):
		if t, ok := m.selectedTrip(); ok {
			if err := m.mgr.Load(t.ID); err != nil {
				m.info = err.Error()
			}
		}

	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selectedTrip(); ok {
			if err := m.mgr.Delete(t.ID); err != nil {
				m.info = err.Error()
			}
		}

	case key.Matches(msg, m.keys.Rename):
		if t, ok := m.selectedTrip(); ok {
			m.editTarget = t.ID
			return m.openPrompt(promptRename, "New destination", t.Destination), textinput.Blink
		}

	case key.Matches(msg, m.keys.Duplicate):
		if t, ok := m.selectedTrip(); ok {
			if _, err := m.mgr.Duplicate(t.ID); err != nil {
				m.info = err.Error()
			}
		}

	case key.Matches(msg, m.keys.Export):
		if t, ok := m.selectedTrip(); ok {
			m.editTarget = t.ID
			return m.openPrompt(promptExportPath, "Export to file", defaultExportPath(t.Destination)), textinput.Blink
		}

	case key.Matches(msg, m.keys.Import):
		return m.openPrompt(promptImportPath, "Import from file", ""), textinput.Blink
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompt = promptNone
		return m, nil
	case "enter":
		return m.submitPrompt()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitPrompt() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	switch m.prompt {
	case promptDestination:
		if value == "" {
			return m, nil
		}
		m.pendingDestination = value
		return m.openPrompt(promptDays, "How many days?", "3"), textinput.Blink

	case promptDays:
		days, err := strconv.Atoi(value)
		if err != nil || days < 1 {
			m.info = "enter a day count of 1 or more"
			return m, nil
		}
		m.prompt = promptNone
		m.info = ""
		m.mgr.PlanTrip(context.Background(), m.pendingDestination, days)
		return m, m.spin.Tick

	case promptEditName:
		if value == "" {
			return m, nil
		}
		m.pendingName = value
		description := ""
		if loc, ok := m.locationByID(m.editTarget); ok {
			description = loc.Description
		}
		return m.openPrompt(promptEditDescription, "Description", description), textinput.Blink

	case promptEditDescription:
		m.mgr.UpdateLocation(m.editTarget, m.pendingName, value)
		m.prompt = promptNone
		m.snap = m.mgr.Snapshot()

	case promptRename:
		if value == "" {
			return m, nil
		}
		if err := m.mgr.Rename(m.editTarget, value); err != nil {
			m.info = err.Error()
		}
		m.prompt = promptNone
		m.snap = m.mgr.Snapshot()

	case promptImportPath:
		data, err := os.ReadFile(value)
		if err != nil {
			m.info = err.Error()
			return m, nil
		}
		if err := m.mgr.Import(data); err != nil {
			m.info = err.Error()
			return m, nil
		}
		m.prompt = promptNone
		m.info = "trip imported"

	case promptExportPath:
		data, err := m.mgr.Export(m.editTarget)
		if err != nil {
			m.info = err.Error()
			return m, nil
		}
		if err := os.WriteFile(value, data, 0o644); err != nil {
			m.info = err.Error()
			return m, nil
		}
		m.prompt = promptNone
		m.info = "exported to " + value
	}
	return m, nil
}

func (m Model) openPrompt(p prompt, placeholder, value string) Model {
	m.prompt = p
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return m
}

// View renders the current screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("wayfarer") + "\n\n")

	if m.screen == screenTrips {
		b.WriteString(m.viewTrips())
	} else {
		b.WriteString(m.viewItinerary())
	}

	if m.prompt != promptNone {
		b.WriteString("\n" + PromptStyle.Render(m.input.Placeholder) + " " + m.input.View() + "\n")
	}

	if m.snap.Err != "" {
		b.WriteString("\n" + ErrorStyle.Render(m.snap.Err))
	} else if m.info != "" {
		b.WriteString("\n" + InfoStyle.Render(m.info))
	}

	b.WriteString("\n" + FooterStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) viewItinerary() string {
	if m.snap.Planning {
		return m.spin.View() + " planning your trip...\n"
	}
	if len(m.snap.Days) == 0 {
		return NormalRowStyle.Render("No trip yet. Press p to plan one.") + "\n"
	}

	var b strings.Builder
	b.WriteString(DayHeaderStyle.Render(fmt.Sprintf("%s · %d days", m.snap.Trip.Destination, m.snap.Trip.NumberOfDays)) + "\n\n")

	for di, day := range m.snap.Days {
		b.WriteString(DayHeaderStyle.Render(fmt.Sprintf("Day %d", day.Day)) + "\n")
		if len(day.Locations) == 0 {
			b.WriteString(DescriptionStyle.Render("(empty)") + "\n")
		}
		for li, loc := range day.Locations {
			selected := di == m.cursorDay && li == m.cursorLoc
			marker := "  "
			style := NormalRowStyle
			if selected {
				marker = "> "
				style = SelectedRowStyle
			}
			photo := " "
			if loc.PhotoURL != "" {
				photo = "*"
			}
			b.WriteString(marker + style.Render(fmt.Sprintf("%d. %s %s", loc.Order+1, loc.Name, photo)) + "\n")
			if selected {
				b.WriteString(DescriptionStyle.Render(loc.Description) + "\n")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewTrips() string {
	if len(m.trips) == 0 {
		return NormalRowStyle.Render("No saved trips.") + "\n"
	}
	var b strings.Builder
	b.WriteString(DayHeaderStyle.Render("Saved trips") + "\n\n")
	for i, t := range m.trips {
		style := NormalRowStyle
		marker := "  "
		if i == m.tripCursor {
			style = SelectedRowStyle
			marker = "> "
		}
		row := fmt.Sprintf("%-24s %2d days   %s", t.Destination, t.NumberOfDays, t.LastModifiedDate.Format("2006-01-02 15:04"))
		b.WriteString(marker + style.Render(row) + "\n")
	}
	return b.String()
}

func (m Model) helpLine() string {
	if m.screen == screenTrips {
		return "enter open · d delete · r rename · c duplicate · x export · i import · esc back · q quit"
	}
	return "p plan · j/k move · J/K reorder · 1-9 send to day · e edit · s save · x export · t trips · q quit"
}

// moveCursor walks the day groups, skipping empty days.
func (m *Model) moveCursor(delta int) {
	days := m.snap.Days
	if len(days) == 0 {
		return
	}
	if delta > 0 {
		if m.cursorLoc+1 < len(days[m.cursorDay].Locations) {
			m.cursorLoc++
			return
		}
		for d := m.cursorDay + 1; d < len(days); d++ {
			if len(days[d].Locations) > 0 {
				m.cursorDay, m.cursorLoc = d, 0
				return
			}
		}
		return
	}
	if m.cursorLoc > 0 {
		m.cursorLoc--
		return
	}
	for d := m.cursorDay - 1; d >= 0; d-- {
		if len(days[d].Locations) > 0 {
			m.cursorDay, m.cursorLoc = d, len(days[d].Locations)-1
			return
		}
	}
}

// clampCursor keeps the cursor valid after the model changes underneath it.
func (m *Model) clampCursor() {
	days := m.snap.Days
	if len(days) == 0 {
		m.cursorDay, m.cursorLoc = 0, 0
		return
	}
	if m.cursorDay >= len(days) {
		m.cursorDay = len(days) - 1
	}
	if n := len(days[m.cursorDay].Locations); m.cursorLoc >= n {
		if n == 0 {
			m.cursorLoc = 0
			m.moveCursor(-1)
		} else {
			m.cursorLoc = n - 1
		}
	}
	if m.tripCursor >= len(m.trips) && m.tripCursor > 0 {
		m.tripCursor = len(m.trips) - 1
	}
}

func (m Model) selectedDay() (model.TripDay, bool) {
	if m.cursorDay >= len(m.snap.Days) {
		return model.TripDay{}, false
	}
	return m.snap.Days[m.cursorDay], true
}

func (m Model) selectedLocation() (model.Location, bool) {
	d, ok := m.selectedDay()
	if !ok || m.cursorLoc >= len(d.Locations) {
		return model.Location{}, false
	}
	return d.Locations[m.cursorLoc], true
}

func (m Model) selectedTrip() (model.Trip, bool) {
	if m.tripCursor >= len(m.trips) {
		return model.Trip{}, false
	}
	return m.trips[m.tripCursor], true
}

func (m Model) locationByID(id string) (model.Location, bool) {
	for _, loc := range m.snap.Locations {
		if loc.ID == id {
			return loc, true
		}
	}
	return model.Location{}, false
}

func defaultExportPath(destination string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(destination), " ", "-"))
	if slug == "" {
		slug = "trip"
	}
	return slug + ".wayfarer.json"
}

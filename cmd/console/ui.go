package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/gatekeeper/internal/engine"
	"github.com/jwebster45206/gatekeeper/pkg/gm"
	"github.com/jwebster45206/gatekeeper/pkg/scene"
)

const PlaceHolderText = "Type a message, or /help for commands..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	conversation *scene.Conversation
	document     *gm.Document
	lastCycle    *engine.CycleResult
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int

	// Transcript of notices interleaved with messages
	log []logEntry
}

type logEntry struct {
	kind    string // "user", "character", "notice", "error"
	speaker string
	text    string
}

type cycleDoneMsg struct {
	result *engine.CycleResult
	err    error
}

type documentMsg struct {
	document *gm.Document
	err      error
}

type seedAddedMsg struct {
	seed *gm.Seed
	err  error
}

type injectionPeekMsg struct {
	character string
	text      string
	err       error
}

type settingsMsg struct {
	settings *gm.Settings
	err      error
}

type clipboardMsg struct {
	err error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	characterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, conv *scene.Conversation) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		conversation: conv,
		document:     gm.NewDocument(),
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
	}
}

func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("GATEKEEPER") + "\n\n")
	content.WriteString("The unseen hand is watching this scene.\n")
	content.WriteString("Messages you type run a decision cycle; the result appears below.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	for _, entry := range m.log {
		switch entry.kind {
		case "user":
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(entry.text, chatWidth-6) + "\n\n")
		case "character":
			content.WriteString(characterStyle.Render(entry.speaker+": ") + wordwrap.String(entry.text, chatWidth-6) + "\n\n")
		case "notice":
			content.WriteString(noticeStyle.Render(wordwrap.String(entry.text, chatWidth-6)) + "\n\n")
		case "error":
			content.WriteString(errorStyle.Render("Error: "+entry.text) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() {
	var content strings.Builder
	content.WriteString(titleStyle.Render("GM DOCUMENT") + "\n\n")

	content.WriteString("Conversation:\n")
	content.WriteString(m.conversation.ID.String()[:8] + "...\n\n")

	content.WriteString("Cast:\n")
	if len(m.conversation.Characters) == 0 {
		content.WriteString("(empty scene)\n")
	}
	for _, c := range m.conversation.Characters {
		content.WriteString("• " + c.Name + "\n")
	}
	content.WriteString("\n")

	if m.document != nil {
		content.WriteString("Tension:\n")
		content.WriteString(string(m.document.WorldState.CurrentTension) + "\n\n")

		content.WriteString(fmt.Sprintf("Threads: %d\n", len(m.document.ActiveThreads)))
		content.WriteString(fmt.Sprintf("Planted: %d\n", len(m.document.PlantedSeeds)))
		content.WriteString(fmt.Sprintf("Ideas:   %d\n", len(m.document.PendingIdeas)))
		content.WriteString(fmt.Sprintf("Seeds:   %d\n\n", len(m.document.UserSeeds)))
	}

	if m.lastCycle != nil {
		content.WriteString("Last cycle:\n")
		content.WriteString(string(m.lastCycle.Outcome))
		if m.lastCycle.Decision != nil {
			content.WriteString(" (" + string(m.lastCycle.Decision.Action) + ")")
		}
		content.WriteString("\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• /seed <text>\n")
	content.WriteString("• /peek <name>\n")
	content.WriteString("• /say <name> <text>\n")
	content.WriteString("• /chaos <0-5>\n")
	content.WriteString("• /doc (copy JSON)\n")
	content.WriteString("• /help\n")
	content.WriteString("• Ctrl+C: Quit\n")

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.writeMetadata()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.log = append(m.log, logEntry{kind: "user", text: input})
			m.writeChatContent()

			return m, tea.Batch(m.sendAndCycle(scene.SpeakerUser, "", input), progressTick())
		}

	case cycleDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.log = append(m.log, logEntry{kind: "error", text: msg.err.Error()})
		} else {
			m.lastCycle = msg.result
			m.log = append(m.log, logEntry{kind: "notice", text: describeCycle(msg.result)})
		}
		m.writeChatContent()
		m.writeMetadata()
		return m, m.refreshDocument()

	case documentMsg:
		if msg.err == nil && msg.document != nil {
			m.document = msg.document
			m.writeMetadata()
		}

	case seedAddedMsg:
		if msg.err != nil {
			m.log = append(m.log, logEntry{kind: "error", text: msg.err.Error()})
		} else {
			m.log = append(m.log, logEntry{kind: "notice", text: fmt.Sprintf("Seed planted (waiting): %s", msg.seed.Text)})
		}
		m.writeChatContent()
		return m, m.refreshDocument()

	case injectionPeekMsg:
		if msg.err != nil {
			m.log = append(m.log, logEntry{kind: "error", text: msg.err.Error()})
		} else if msg.text == "" {
			m.log = append(m.log, logEntry{kind: "notice", text: fmt.Sprintf("Nothing pending for %s.", msg.character)})
		} else {
			m.log = append(m.log, logEntry{kind: "notice", text: fmt.Sprintf("%s would receive: %s", msg.character, msg.text)})
		}
		m.writeChatContent()

	case settingsMsg:
		if msg.err != nil {
			m.log = append(m.log, logEntry{kind: "error", text: msg.err.Error()})
		} else {
			m.log = append(m.log, logEntry{kind: "notice", text: fmt.Sprintf("Settings updated: chaos %d, rating %s", msg.settings.World.ChaosFactor, msg.settings.ContentRating)})
		}
		m.writeChatContent()

	case clipboardMsg:
		if msg.err != nil {
			m.log = append(m.log, logEntry{kind: "error", text: msg.err.Error()})
		} else {
			m.log = append(m.log, logEntry{kind: "notice", text: "GM document copied to clipboard."})
		}
		m.writeChatContent()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func describeCycle(result *engine.CycleResult) string {
	switch result.Outcome {
	case engine.OutcomeInjected:
		target := "everyone"
		if result.Decision.Target != "" {
			target = result.Decision.Target
		}
		return fmt.Sprintf("The gatekeeper acts: %s → %s. %s",
			result.Decision.Action, target, result.Decision.Reasoning)
	case engine.OutcomeHeld:
		reason := ""
		if result.Decision != nil {
			reason = " " + result.Decision.Reasoning
		}
		return "The gatekeeper holds." + reason
	default:
		return "Cycle aborted: " + result.Reason
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	m.textarea.Reset()

	parts := strings.SplitN(strings.TrimSpace(input), " ", 2)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "/help":
		m.log = append(m.log, logEntry{kind: "notice", text: `Commands:
/seed <text>        plant a story seed for the gatekeeper to pay off
/peek <name>        show the pending injection for a character
/say <name> <text>  record a character's reply, then run a cycle
/chaos <0-5>        set the chaos factor
/doc                copy the GM document JSON to the clipboard
Plain messages are recorded as you, then a decision cycle runs.`})
		m.writeChatContent()

	case "/seed":
		if arg == "" {
			m.log = append(m.log, logEntry{kind: "error", text: "usage: /seed <text>"})
			m.writeChatContent()
			return m, nil
		}
		return m, m.plantSeed(arg)

	case "/peek":
		if arg == "" {
			m.log = append(m.log, logEntry{kind: "error", text: "usage: /peek <character name>"})
			m.writeChatContent()
			return m, nil
		}
		return m, m.peekInjection(arg)

	case "/say":
		sayParts := strings.SplitN(arg, " ", 2)
		if len(sayParts) < 2 {
			m.log = append(m.log, logEntry{kind: "error", text: "usage: /say <name> <text>"})
			m.writeChatContent()
			return m, nil
		}
		name, text := sayParts[0], strings.TrimSpace(sayParts[1])
		m.loading = true
		m.progressTick = 0
		m.log = append(m.log, logEntry{kind: "character", speaker: name, text: text})
		m.writeChatContent()
		return m, tea.Batch(m.sendAndCycle(scene.SpeakerCharacter, name, text), progressTick())

	case "/chaos":
		var level int
		if _, err := fmt.Sscanf(arg, "%d", &level); err != nil {
			m.log = append(m.log, logEntry{kind: "error", text: "usage: /chaos <0-5>"})
			m.writeChatContent()
			return m, nil
		}
		return m, m.updateChaos(level)

	case "/doc":
		return m, m.copyDocument()

	default:
		m.log = append(m.log, logEntry{kind: "error", text: "unknown command " + cmd})
		m.writeChatContent()
	}

	return m, nil
}

// sendAndCycle appends the message to the conversation and runs one decision
// cycle.
func (m ConsoleUI) sendAndCycle(role, name, content string) tea.Cmd {
	return func() tea.Msg {
		if err := appendMessage(m.client, m.config.APIBaseURL, m.conversation.ID, role, name, content); err != nil {
			return cycleDoneMsg{nil, err}
		}

		result, err := runCycle(m.client, m.config.APIBaseURL, m.conversation.ID)
		return cycleDoneMsg{result, err}
	}
}

func (m ConsoleUI) refreshDocument() tea.Cmd {
	return func() tea.Msg {
		doc, err := getDocument(m.client, m.config.APIBaseURL, m.conversation.ID)
		return documentMsg{doc, err}
	}
}

func (m ConsoleUI) plantSeed(text string) tea.Cmd {
	return func() tea.Msg {
		seed, err := addSeed(m.client, m.config.APIBaseURL, m.conversation.ID, text)
		return seedAddedMsg{seed, err}
	}
}

func (m ConsoleUI) peekInjection(character string) tea.Cmd {
	return func() tea.Msg {
		text, err := getInjection(m.client, m.config.APIBaseURL, m.conversation.ID, character)
		return injectionPeekMsg{character, text, err}
	}
}

func (m ConsoleUI) updateChaos(level int) tea.Cmd {
	return func() tea.Msg {
		settings, err := patchSettings(m.client, m.config.APIBaseURL, map[string]any{"chaos_factor": level})
		return settingsMsg{settings, err}
	}
}

func (m ConsoleUI) copyDocument() tea.Cmd {
	return func() tea.Msg {
		doc, err := getDocument(m.client, m.config.APIBaseURL, m.conversation.ID)
		if err != nil {
			return clipboardMsg{err}
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return clipboardMsg{err}
		}
		return clipboardMsg{clipboard.WriteAll(string(data))}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the scene?"))
	content.WriteString("\n\n")
	content.WriteString("The GM document stays saved; the pending injection does not.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar while a cycle runs
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

package config

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskkeeper/internal/credential"
	"github.com/nhle/taskkeeper/internal/keys"
	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/reminder"
	"github.com/nhle/taskkeeper/internal/theme"
)

// ConfigMode represents the current state of the settings view.
type ConfigMode int

const (
	ModeSummary        ConfigMode = iota // Show current settings
	ModeSelectSection                    // Pick which section to edit
	ModeFormAI                           // Suggestion client form
	ModeFormReminders                    // Reminder delivery form
	ModeValidating                       // Sending a test reminder
	ModeValidateResult                   // Show test result
)

const (
	sectionAI        = "ai"
	sectionReminders = "reminders"
)

// ConfigDoneMsg signals the settings view should close.
type ConfigDoneMsg struct{}

// ConfigSavedMsg reports the configuration written to disk.
type ConfigSavedMsg struct {
	Config model.AppConfig
}

// ValidateResultMsg carries the outcome of a test reminder.
type ValidateResultMsg struct {
	Err error
}

type secretsLoadedMsg struct {
	aiKey, smtpPassword bool
}

type configSavedInternalMsg struct {
	cfg model.AppConfig
	err error
}

// SaveFunc writes cfg to path.
type SaveFunc func(path string, cfg *model.AppConfig) error

// TestFunc delivers one test reminder with the given mail settings.
type TestFunc func(ctx context.Context, mail model.MailConfig, password string) error

// formBindings holds the values huh writes into. It lives behind a
// pointer so copies of Model share it.
type formBindings struct {
	section string

	aiModel     string
	maxTokens   string
	minInterval string
	baseURL     string
	apiKey      string

	deliver  string
	host     string
	port     string
	username string
	from     string
	to       string
	password string
	tls      bool
}

// Model is the Bubble Tea model for the settings UI.
type Model struct {
	mode ConfigMode
	path string
	cfg  model.AppConfig

	aiKeySet bool
	smtpSet  bool

	sectionForm *huh.Form
	aiForm      *huh.Form
	remForm     *huh.Form
	fb          *formBindings

	validError error
	spinner    spinner.Model

	statusMsg string

	save      SaveFunc
	test      TestFunc
	lookup    func(key string) (string, error)
	setSecret func(key, value string) error

	keys          *keys.KeyMap
	width, height int
}

// New creates a settings view editing cfg, saved back to path.
func New(path string, cfg model.AppConfig, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:      ModeSummary,
		path:      path,
		cfg:       cfg,
		fb:        &formBindings{},
		spinner:   sp,
		save:      model.SaveConfig,
		test:      sendTestReminder,
		lookup:    credential.Lookup,
		setSecret: credential.Set,
		keys:      k,
		width:     width,
		height:    height,
	}
}

// Init checks which secrets are already stored.
func (m Model) Init() tea.Cmd {
	lookup := m.lookup
	return func() tea.Msg {
		ai, _ := lookup(credential.KeyAIAPIKey)
		smtp, _ := lookup(credential.KeySMTPPassword)
		return secretsLoadedMsg{aiKey: ai != "", smtpPassword: smtp != ""}
	}
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case secretsLoadedMsg:
		m.aiKeySet = msg.aiKey
		m.smtpSet = msg.smtpPassword
		return m, nil

	case configSavedInternalMsg:
		m.mode = ModeSummary
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			return m, nil
		}
		m.cfg = msg.cfg
		m.statusMsg = "Settings saved. Restart taskkeeper to apply them."
		return m, tea.Batch(
			m.Init(),
			func() tea.Msg { return ConfigSavedMsg{Config: msg.cfg} },
		)

	case ValidateResultMsg:
		m.validError = msg.Err
		m.mode = ModeValidateResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeSummary:
		return m.handleSummaryKeys(msg)
	case ModeValidateResult:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Select) {
			m.mode = ModeSummary
		}
		return m, nil
	case ModeValidating:
		return m, nil
	}
	return m.updateActiveForm(msg)
}

func (m Model) handleSummaryKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }

	case key.Matches(msg, m.keys.Edit):
		m.statusMsg = ""
		m.fb.section = sectionAI
		m.sectionForm = m.buildSectionForm()
		m.mode = ModeSelectSection
		return m, m.sectionForm.Init()

	case msg.String() == "t":
		if m.cfg.Reminders.Deliver != model.DeliverMail {
			m.statusMsg = "Reminders are written to the log; nothing to test."
			return m, nil
		}
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validateMail())
	}
	return m, nil
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeSelectSection:
		return m.updateSectionForm(msg)
	case ModeFormAI, ModeFormReminders:
		return m.updateForm(msg)
	}
	return m, nil
}

// --- Section selection ---

func (m Model) buildSectionForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Edit settings").
				Options(
					huh.NewOption("AI suggestions", sectionAI),
					huh.NewOption("Reminder delivery", sectionReminders),
				).
				Value(&m.fb.section),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateSectionForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.sectionForm == nil {
		return m, nil
	}

	mdl, cmd := m.sectionForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.sectionForm = f
	}

	switch m.sectionForm.State {
	case huh.StateCompleted:
		m.resetFormFields()
		if m.fb.section == sectionReminders {
			m.mode = ModeFormReminders
			m.remForm = m.buildRemindersForm()
			return m, m.remForm.Init()
		}
		m.mode = ModeFormAI
		m.aiForm = m.buildAIForm()
		return m, m.aiForm.Init()
	case huh.StateAborted:
		m.mode = ModeSummary
		return m, nil
	}
	return m, cmd
}

// --- AI form ---

func (m Model) buildAIForm() *huh.Form {
	keyHint := "Not stored. Leave blank to skip."
	if m.aiKeySet {
		keyHint = "Already stored. Leave blank to keep it."
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Model").
				Description("Chat model used for suggestions").
				Value(&m.fb.aiModel).
				Validate(validateRequired("Model")),
			huh.NewInput().
				Title("Max tokens").
				Value(&m.fb.maxTokens).
				Validate(validatePositive("Max tokens")),
			huh.NewInput().
				Title("Min interval (seconds)").
				Description("Minimum spacing between two requests").
				Value(&m.fb.minInterval).
				Validate(validatePositive("Min interval")),
			huh.NewInput().
				Title("Base URL").
				Description("Leave blank for the default endpoint").
				Value(&m.fb.baseURL).
				Validate(validateOptionalURL),
			huh.NewInput().
				Title("API key").
				Description(keyHint).
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.apiKey),
		),
	).WithWidth(m.formWidth())
}

func (m Model) saveAI() (Model, tea.Cmd) {
	cfg := m.cfg
	cfg.AI.Model = strings.TrimSpace(m.fb.aiModel)
	cfg.AI.MaxTokens, _ = strconv.Atoi(strings.TrimSpace(m.fb.maxTokens))
	cfg.AI.MinIntervalSec, _ = strconv.Atoi(strings.TrimSpace(m.fb.minInterval))
	cfg.AI.BaseURL = strings.TrimSpace(m.fb.baseURL)

	if k := strings.TrimSpace(m.fb.apiKey); k != "" {
		if err := m.setSecret(credential.KeyAIAPIKey, k); err != nil {
			m.statusMsg = fmt.Sprintf("Error saving credential: %v", err)
			m.mode = ModeSummary
			return m, nil
		}
	}
	return m, m.saveConfig(cfg)
}

// --- Reminders form ---

func (m Model) buildRemindersForm() *huh.Form {
	passwordHint := "Not stored."
	if m.smtpSet {
		passwordHint = "Already stored. Leave blank to keep it."
	}
	fb := m.fb

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Deliver reminders by").
				Options(
					huh.NewOption("Log only", model.DeliverLog),
					huh.NewOption("Email", model.DeliverMail),
				).
				Value(&fb.deliver),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SMTP Host").
				Placeholder("smtp.example.com").
				Value(&fb.host).
				Validate(validateRequired("SMTP Host")),
			huh.NewInput().
				Title("SMTP Port").
				Placeholder("587").
				Value(&fb.port).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Placeholder("user@example.com").
				Value(&fb.username),
			huh.NewInput().
				Title("Password").
				Description(passwordHint).
				EchoMode(huh.EchoModePassword).
				Value(&fb.password),
			huh.NewInput().
				Title("From").
				Value(&fb.from).
				Validate(validateRequired("From")),
			huh.NewInput().
				Title("To").
				Value(&fb.to).
				Validate(validateRequired("To")),
			huh.NewConfirm().
				Title("Use TLS").
				Description("Connect with implicit TLS instead of STARTTLS").
				Affirmative("Yes").
				Negative("No").
				Value(&fb.tls),
		).WithHideFunc(func() bool { return fb.deliver != model.DeliverMail }),
	).WithWidth(m.formWidth())
}

func (m Model) saveReminders() (Model, tea.Cmd) {
	cfg := m.cfg
	cfg.Reminders.Deliver = m.fb.deliver
	if m.fb.deliver == model.DeliverMail {
		cfg.Reminders.Mail = model.MailConfig{
			Host:     strings.TrimSpace(m.fb.host),
			Port:     strings.TrimSpace(m.fb.port),
			Username: strings.TrimSpace(m.fb.username),
			From:     strings.TrimSpace(m.fb.from),
			To:       strings.TrimSpace(m.fb.to),
			TLS:      m.fb.tls,
		}
		if pw := m.fb.password; pw != "" {
			if err := m.setSecret(credential.KeySMTPPassword, pw); err != nil {
				m.statusMsg = fmt.Sprintf("Error saving credential: %v", err)
				m.mode = ModeSummary
				return m, nil
			}
		}
	}
	return m, m.saveConfig(cfg)
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	f := m.aiForm
	if m.mode == ModeFormReminders {
		f = m.remForm
	}
	if f == nil {
		return m, nil
	}

	mdl, cmd := f.Update(msg)
	if next, ok := mdl.(*huh.Form); ok {
		f = next
	}
	if m.mode == ModeFormReminders {
		m.remForm = f
	} else {
		m.aiForm = f
	}

	switch f.State {
	case huh.StateCompleted:
		if m.mode == ModeFormReminders {
			return m.saveReminders()
		}
		return m.saveAI()
	case huh.StateAborted:
		m.mode = ModeSummary
		return m, nil
	}
	return m, cmd
}

// --- View ---

// View renders the settings UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeSummary:
		return m.viewSummary()
	case ModeSelectSection:
		return m.viewForm(m.sectionForm)
	case ModeFormAI:
		return m.viewForm(m.aiForm)
	case ModeFormReminders:
		return m.viewForm(m.remForm)
	case ModeValidating:
		return m.viewValidating()
	case ModeValidateResult:
		return m.viewValidateResult()
	default:
		return ""
	}
}

func (m Model) viewSummary() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)

	row := func(label, value string) {
		b.WriteString(theme.LabelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	stored := func(ok bool) string {
		if ok {
			return "stored"
		}
		return theme.DimmedStyle.Render("not set")
	}

	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("AI suggestions"))
	b.WriteString("\n")
	row("Model", m.cfg.AI.Model)
	row("Max tokens", strconv.Itoa(m.cfg.AI.MaxTokens))
	row("Interval", fmt.Sprintf("%ds", m.cfg.AI.MinIntervalSec))
	if m.cfg.AI.BaseURL != "" {
		row("Base URL", m.cfg.AI.BaseURL)
	}
	row("API key", stored(m.aiKeySet))

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Reminders"))
	b.WriteString("\n")
	row("Deliver", m.cfg.Reminders.Deliver)
	if m.cfg.Reminders.Deliver == model.DeliverMail {
		mail := m.cfg.Reminders.Mail
		row("SMTP", mail.Host+":"+mail.Port)
		row("To", mail.To)
		row("Password", stored(m.smtpSet))
	}

	b.WriteString("\n")
	row("File", m.path)

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.StatusStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"e edit | t send test reminder | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

func (m Model) viewValidating() string {
	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(m.spinner.View() + " Sending test reminder to " + m.cfg.Reminders.Mail.To + "...")
}

func (m Model) viewValidateResult() string {
	var content string
	if m.validError != nil {
		content = lipgloss.NewStyle().Foreground(theme.ColorRed).
			Render(fmt.Sprintf("Test reminder failed:\n%v", m.validError))
	} else {
		content = lipgloss.NewStyle().Foreground(theme.ColorGreen).
			Render("Test reminder sent to " + m.cfg.Reminders.Mail.To)
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(
		content + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.ColorGray).Render("enter/esc back"),
	)
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Editing reports whether a form has focus.
func (m Model) Editing() bool {
	switch m.mode {
	case ModeSelectSection, ModeFormAI, ModeFormReminders:
		return true
	}
	return false
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// resetFormFields fills the bindings from the current config. Secrets
// are never pre-filled.
func (m *Model) resetFormFields() {
	fb := m.fb
	fb.aiModel = m.cfg.AI.Model
	fb.maxTokens = strconv.Itoa(m.cfg.AI.MaxTokens)
	fb.minInterval = strconv.Itoa(m.cfg.AI.MinIntervalSec)
	fb.baseURL = m.cfg.AI.BaseURL
	fb.apiKey = ""

	mail := m.cfg.Reminders.Mail
	fb.deliver = m.cfg.Reminders.Deliver
	fb.host = mail.Host
	fb.port = mail.Port
	fb.username = mail.Username
	fb.from = mail.From
	fb.to = mail.To
	fb.password = ""
	fb.tls = mail.TLS
}

func (m Model) saveConfig(cfg model.AppConfig) tea.Cmd {
	save, path := m.save, m.path
	return func() tea.Msg {
		err := save(path, &cfg)
		return configSavedInternalMsg{cfg: cfg, err: err}
	}
}

// validateMail sends a test reminder with the saved mail settings.
func (m Model) validateMail() tea.Cmd {
	test, lookup := m.test, m.lookup
	mail := m.cfg.Reminders.Mail
	return func() tea.Msg {
		password, err := lookup(credential.KeySMTPPassword)
		if err != nil {
			return ValidateResultMsg{Err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return ValidateResultMsg{Err: test(ctx, mail, password)}
	}
}

func sendTestReminder(ctx context.Context, mail model.MailConfig, password string) error {
	return reminder.NewMailDeliverer(mail, password).Deliver(ctx, reminder.Alert{
		Title: "taskkeeper test reminder",
		Body:  "Reminder delivery is working.",
	})
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePositive(fieldName string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive number", fieldName)
		}
		return nil
	}
}

func validateOptionalURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("port is required")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}

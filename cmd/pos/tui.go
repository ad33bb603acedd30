package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Danokray/Tablecrm/internal/app"
	"github.com/Danokray/Tablecrm/internal/cart"
	"github.com/Danokray/Tablecrm/internal/domain/order"
	"github.com/Danokray/Tablecrm/internal/notify"
	"github.com/Danokray/Tablecrm/internal/search"
	"github.com/Danokray/Tablecrm/internal/submit"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	focusBoxStyle = boxStyle.BorderForeground(lipgloss.Color("62"))
	labelStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
)

type screen int

const (
	screenToken screen = iota
	screenOrder
)

type zone int

const (
	zoneClient zone = iota
	zoneProduct
	zoneRefs
	zoneCart
	zoneActions

	zoneCount
)

// Messages pushed into the program from the engine listeners.
type (
	clientSnapshotMsg  search.Snapshot[order.Client]
	productSnapshotMsg search.Snapshot[order.Product]
	submitStatusMsg    submit.Status
	notesMsg           []notify.Note

	authDoneMsg   struct{ err error }
	submitDoneMsg struct {
		res submit.Result
		err error
	}
)

type model struct {
	engine *app.Engine
	ctx    context.Context

	screen screen
	zone   zone

	tokenInput   textinput.Model
	clientInput  textinput.Model
	productInput textinput.Model
	priceInput   textinput.Model
	editingPrice bool

	clientSnap  search.Snapshot[order.Client]
	productSnap search.Snapshot[order.Product]

	clientCursor  int
	productCursor int
	refCursor     int
	refChoice     map[order.ReferenceKind]int
	cartCursor    int
	actionCursor  int

	notes        []notify.Note
	submitStatus submit.Status
	authBusy     bool
	width        int
}

func newModel(engine *app.Engine) model {
	token := textinput.New()
	token.Placeholder = "API token"
	token.EchoMode = textinput.EchoPassword
	token.Focus()
	token.SetValue(engine.StoredToken())

	client := textinput.New()
	client.Placeholder = "client phone (3+ digits)"

	product := textinput.New()
	product.Placeholder = "product name (2+ characters)"

	price := textinput.New()
	price.CharLimit = 12

	return model{
		engine:       engine,
		ctx:          context.Background(),
		screen:       screenToken,
		tokenInput:   token,
		clientInput:  client,
		productInput: product,
		priceInput:   price,
		refChoice:    map[order.ReferenceKind]int{},
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case clientSnapshotMsg:
		m.clientSnap = search.Snapshot[order.Client](msg)
		if m.clientCursor >= len(m.clientSnap.Results) {
			m.clientCursor = 0
		}
		return m, nil

	case productSnapshotMsg:
		m.productSnap = search.Snapshot[order.Product](msg)
		if m.productCursor >= len(m.productSnap.Results) {
			m.productCursor = 0
		}
		return m, nil

	case submitStatusMsg:
		m.submitStatus = submit.Status(msg)
		return m, nil

	case notesMsg:
		m.notes = msg
		return m, nil

	case authDoneMsg:
		m.authBusy = false
		if msg.err == nil {
			m.screen = screenOrder
			m.zone = zoneClient
			m.tokenInput.Blur()
			m.clientInput.Focus()
			m.engine.ClientSearch().Focus(m.ctx)
		}
		return m, nil

	case submitDoneMsg:
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.screen == screenToken {
			return m.updateToken(msg)
		}
		return m.updateOrder(msg)
	}
	return m, nil
}

func (m model) updateToken(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter && !m.authBusy {
		token := strings.TrimSpace(m.tokenInput.Value())
		if token == "" {
			return m, nil
		}
		m.authBusy = true
		return m, m.authenticate(token)
	}
	var cmd tea.Cmd
	m.tokenInput, cmd = m.tokenInput.Update(msg)
	return m, cmd
}

func (m model) authenticate(token string) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: m.engine.Authenticate(m.ctx, token)}
	}
}

func (m model) submit(conduct bool) tea.Cmd {
	return func() tea.Msg {
		res, err := m.engine.Submit(m.ctx, conduct)
		return submitDoneMsg{res: res, err: err}
	}
}

func (m model) updateOrder(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.zone == zoneCart && m.editingPrice {
		return m.updatePriceEdit(msg)
	}

	switch msg.Type {
	case tea.KeyTab:
		return m.focusZone((m.zone + 1) % zoneCount), nil
	case tea.KeyShiftTab:
		return m.focusZone((m.zone + zoneCount - 1) % zoneCount), nil
	case tea.KeyEsc:
		switch m.zone {
		case zoneClient:
			m.clientInput.SetValue("")
			m.engine.ClientSearch().Cancel()
			m.clientSnap = m.engine.ClientSearch().Snapshot()
		case zoneProduct:
			m.productInput.SetValue("")
			m.engine.ProductSearch().Cancel()
			m.productSnap = m.engine.ProductSearch().Snapshot()
		}
		return m, nil
	}

	switch m.zone {
	case zoneClient:
		return m.updateClientZone(msg)
	case zoneProduct:
		return m.updateProductZone(msg)
	case zoneRefs:
		return m.updateRefZone(msg), nil
	case zoneCart:
		return m.updateCartZone(msg), nil
	case zoneActions:
		return m.updateActionZone(msg)
	}
	return m, nil
}

func (m model) focusZone(z zone) model {
	m.zone = z
	m.clientInput.Blur()
	m.productInput.Blur()
	switch z {
	case zoneClient:
		m.clientInput.Focus()
		if strings.TrimSpace(m.clientInput.Value()) == "" {
			m.engine.ClientSearch().Focus(m.ctx)
		}
	case zoneProduct:
		m.productInput.Focus()
	}
	return m
}

func (m model) updateClientZone(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.clientCursor > 0 {
			m.clientCursor--
		}
		return m, nil
	case tea.KeyDown:
		if m.clientCursor < len(m.clientSnap.Results)-1 {
			m.clientCursor++
		}
		return m, nil
	case tea.KeyEnter:
		if len(m.clientSnap.Results) > 0 {
			if _, ok := m.engine.SelectClient(m.clientCursor); ok {
				m.clientInput.SetValue("")
				m.clientSnap = m.engine.ClientSearch().Snapshot()
				m.clientCursor = 0
			}
			return m, nil
		}
		m.engine.ClientSearch().Flush(m.ctx)
		return m, nil
	}

	var cmd tea.Cmd
	before := m.clientInput.Value()
	m.clientInput, cmd = m.clientInput.Update(msg)
	if after := m.clientInput.Value(); after != before {
		m.engine.ClientSearch().SetQuery(m.ctx, after)
	}
	return m, cmd
}

func (m model) updateProductZone(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.productCursor > 0 {
			m.productCursor--
		}
		return m, nil
	case tea.KeyDown:
		if m.productCursor < len(m.productSnap.Results)-1 {
			m.productCursor++
		}
		return m, nil
	case tea.KeyEnter:
		if len(m.productSnap.Results) > 0 {
			if _, ok := m.engine.AddProduct(m.productCursor); ok {
				m.productInput.SetValue("")
				m.productSnap = m.engine.ProductSearch().Snapshot()
				m.productCursor = 0
			}
			return m, nil
		}
		m.engine.ProductSearch().Flush(m.ctx)
		return m, nil
	}

	var cmd tea.Cmd
	before := m.productInput.Value()
	m.productInput, cmd = m.productInput.Update(msg)
	if after := m.productInput.Value(); after != before {
		m.engine.ProductSearch().SetQuery(m.ctx, after)
	}
	return m, cmd
}

func (m model) updateRefZone(msg tea.KeyMsg) model {
	kinds := order.Kinds()
	switch msg.Type {
	case tea.KeyUp:
		if m.refCursor > 0 {
			m.refCursor--
		}
	case tea.KeyDown:
		if m.refCursor < len(kinds)-1 {
			m.refCursor++
		}
	case tea.KeyLeft, tea.KeyRight:
		kind := kinds[m.refCursor]
		entries := m.engine.References(kind)
		if len(entries) == 0 {
			return m
		}
		i := m.refChoice[kind]
		if msg.Type == tea.KeyRight {
			i = (i + 1) % len(entries)
		} else {
			i = (i + len(entries) - 1) % len(entries)
		}
		m.refChoice[kind] = i
		m.engine.SelectReference(kind, entries[i].ID)
	case tea.KeyEnter:
		kind := kinds[m.refCursor]
		entries := m.engine.References(kind)
		if i, ok := m.refChoice[kind]; ok && i < len(entries) {
			m.engine.SelectReference(kind, entries[i].ID)
		} else if len(entries) > 0 {
			m.refChoice[kind] = 0
			m.engine.SelectReference(kind, entries[0].ID)
		}
	}
	return m
}

func (m model) updateCartZone(msg tea.KeyMsg) model {
	items := m.engine.Cart().Items()
	switch msg.Type {
	case tea.KeyUp:
		if m.cartCursor > 0 {
			m.cartCursor--
		}
		return m
	case tea.KeyDown:
		if m.cartCursor < len(items)-1 {
			m.cartCursor++
		}
		return m
	case tea.KeyDelete, tea.KeyBackspace:
		m.engine.Cart().Remove(m.cartCursor)
		if n := m.engine.Cart().Len(); m.cartCursor >= n && m.cartCursor > 0 {
			m.cartCursor = n - 1
		}
		return m
	}
	switch msg.String() {
	case "+":
		m.engine.Cart().Increment(m.cartCursor)
	case "-":
		m.engine.Cart().Decrement(m.cartCursor)
		if n := m.engine.Cart().Len(); m.cartCursor >= n && m.cartCursor > 0 {
			m.cartCursor = n - 1
		}
	case "d":
		m.engine.Cart().Remove(m.cartCursor)
		if n := m.engine.Cart().Len(); m.cartCursor >= n && m.cartCursor > 0 {
			m.cartCursor = n - 1
		}
	case "p":
		if m.cartCursor < len(items) {
			m.editingPrice = true
			m.priceInput.SetValue("")
			m.priceInput.Placeholder = cart.FormatAmount(items[m.cartCursor].UnitPrice)
			m.priceInput.Focus()
		}
	}
	return m
}

// updatePriceEdit captures keys while the unit price of the
// highlighted cart line is being edited. Enter commits the new price
// together with the line's current quantity; esc or a blank value
// leaves the line untouched.
func (m model) updatePriceEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editingPrice = false
		m.priceInput.Blur()
		return m, nil
	case tea.KeyEnter:
		raw := strings.TrimSpace(m.priceInput.Value())
		m.editingPrice = false
		m.priceInput.Blur()
		if raw == "" {
			return m, nil
		}
		price, err := decimal.NewFromString(raw)
		if err != nil || price.IsNegative() {
			return m, nil
		}
		items := m.engine.Cart().Items()
		if m.cartCursor < len(items) {
			item := items[m.cartCursor]
			item.UnitPrice = price
			m.engine.Cart().Replace(m.cartCursor, item)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.priceInput, cmd = m.priceInput.Update(msg)
	return m, cmd
}

func (m model) updateActionZone(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyLeft, tea.KeyRight:
		m.actionCursor = 1 - m.actionCursor
		return m, nil
	case tea.KeyEnter:
		if m.submitStatus == submit.StatusSubmitting || m.submitStatus == submit.StatusValidating {
			return m, nil
		}
		return m, m.submit(m.actionCursor == 1)
	}
	if msg.String() == "l" {
		m.engine.Logout()
		m.screen = screenToken
		m.tokenInput.SetValue("")
		m.tokenInput.Focus()
		m.clientSnap = search.Snapshot[order.Client]{}
		m.productSnap = search.Snapshot[order.Product]{}
		m.refChoice = map[order.ReferenceKind]int{}
		return m, textinput.Blink
	}
	return m, nil
}

// =============================================================================
// Rendering
// =============================================================================

func (m model) View() string {
	if m.screen == screenToken {
		return m.viewToken()
	}
	return m.viewOrder()
}

func (m model) viewToken() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" TableCRM POS ") + "\n\n")
	b.WriteString("  Enter the API token to start:\n\n")
	b.WriteString("  " + m.tokenInput.View() + "\n\n")
	if m.authBusy {
		b.WriteString(dimStyle.Render("  checking token...") + "\n")
	}
	b.WriteString(dimStyle.Render("  enter: continue • ctrl+c: quit") + "\n")
	b.WriteString(m.viewNotes())
	return b.String()
}

func (m model) viewOrder() string {
	sections := []string{
		titleStyle.Render(" TableCRM POS — new sale "),
		m.viewClientSection(),
		m.viewProductSection(),
		m.viewRefSection(),
		m.viewCartSection(),
		m.viewActionSection(),
	}
	out := strings.Join(sections, "\n")
	out += "\n" + dimStyle.Render("tab: next section • esc: clear search • ctrl+c: quit")
	out += m.viewNotes()
	return out
}

func (m model) sectionStyle(z zone) lipgloss.Style {
	if m.zone == z {
		return focusBoxStyle
	}
	return boxStyle
}

func (m model) viewClientSection() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Client") + "\n")
	if client, ok := m.engine.Session().Client(); ok {
		line := client.Name
		if client.Phone != "" {
			line += "  " + dimStyle.Render(client.Phone)
		}
		b.WriteString(successStyle.Render("✓ ") + line + "\n")
	}
	b.WriteString(m.clientInput.View() + "\n")
	b.WriteString(renderCandidates(m.clientSnap.Status, m.clientSnap.Advisory, len(m.clientSnap.Results), m.clientCursor, m.zone == zoneClient, func(i int) string {
		c := m.clientSnap.Results[i]
		if c.Phone == "" {
			return c.Name
		}
		return fmt.Sprintf("%s  %s", c.Name, c.Phone)
	}))
	return m.sectionStyle(zoneClient).Render(strings.TrimRight(b.String(), "\n"))
}

func (m model) viewProductSection() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Products") + "\n")
	b.WriteString(m.productInput.View() + "\n")
	b.WriteString(renderCandidates(m.productSnap.Status, m.productSnap.Advisory, len(m.productSnap.Results), m.productCursor, m.zone == zoneProduct, func(i int) string {
		p := m.productSnap.Results[i]
		return fmt.Sprintf("%s  %s", p.Name, cart.FormatAmount(p.Price))
	}))
	return m.sectionStyle(zoneProduct).Render(strings.TrimRight(b.String(), "\n"))
}

func renderCandidates(status search.Status, advisory string, n, cursor int, focused bool, line func(int) string) string {
	var b strings.Builder
	switch status {
	case search.StatusPending, search.StatusInFlight:
		b.WriteString(dimStyle.Render("searching...") + "\n")
	}
	if advisory != "" {
		b.WriteString(infoStyle.Render(advisory) + "\n")
	}
	for i := 0; i < n; i++ {
		text := line(i)
		if focused && i == cursor {
			b.WriteString(cursorStyle.Render("▸ "+text) + "\n")
		} else {
			b.WriteString("  " + text + "\n")
		}
	}
	return b.String()
}

func (m model) viewRefSection() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Order parameters") + "\n")
	for i, kind := range order.Kinds() {
		entries := m.engine.References(kind)
		value := dimStyle.Render("not selected")
		if idx, ok := m.refChoice[kind]; ok && idx < len(entries) {
			value = entries[idx].Name
		} else if len(entries) == 0 {
			value = errorStyle.Render("unavailable")
		}
		row := fmt.Sprintf("%-17s ◂ %s ▸", kind.Label()+":", value)
		if m.zone == zoneRefs && i == m.refCursor {
			b.WriteString(cursorStyle.Render(row) + "\n")
		} else {
			b.WriteString(row + "\n")
		}
	}
	return m.sectionStyle(zoneRefs).Render(strings.TrimRight(b.String(), "\n"))
}

func (m model) viewCartSection() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Cart") + "\n")
	items := m.engine.Cart().Items()
	if len(items) == 0 {
		b.WriteString(dimStyle.Render("empty — add products above") + "\n")
	}
	for i, item := range items {
		row := fmt.Sprintf("%-24s %s × %s = %s",
			item.Name,
			cart.FormatAmount(item.Quantity),
			cart.FormatAmount(item.UnitPrice),
			cart.FormatAmount(item.Subtotal()),
		)
		if m.zone == zoneCart && i == m.cartCursor {
			b.WriteString(cursorStyle.Render("▸ "+row) + "\n")
		} else {
			b.WriteString("  " + row + "\n")
		}
	}
	if len(items) > 0 {
		b.WriteString(labelStyle.Render("Total: "+cart.FormatAmount(m.engine.Cart().Total())) + "\n")
	}
	if m.zone == zoneCart && m.editingPrice {
		b.WriteString("new price: " + m.priceInput.View() + "\n")
	} else if m.zone == zoneCart {
		b.WriteString(dimStyle.Render("+/-: quantity • p: price • d: remove") + "\n")
	}
	return m.sectionStyle(zoneCart).Render(strings.TrimRight(b.String(), "\n"))
}

func (m model) viewActionSection() string {
	busy := m.submitStatus == submit.StatusSubmitting || m.submitStatus == submit.StatusValidating

	render := func(label string, selected bool) string {
		if busy {
			return dimStyle.Render("[ " + label + " ]")
		}
		if selected && m.zone == zoneActions {
			return cursorStyle.Render("[ " + label + " ]")
		}
		return "[ " + label + " ]"
	}

	line := render("Create sale", m.actionCursor == 0) + "  " + render("Create and conduct", m.actionCursor == 1)
	if busy {
		line += "  " + infoStyle.Render("submitting...")
	}
	if m.zone == zoneActions {
		line += "\n" + dimStyle.Render("enter: submit • l: log out")
	}
	return m.sectionStyle(zoneActions).Render(line)
}

func (m model) viewNotes() string {
	if len(m.notes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, note := range m.notes {
		switch note.Kind {
		case notify.KindSuccess:
			b.WriteString(successStyle.Render("✓ "+note.Text) + "\n")
		case notify.KindError:
			b.WriteString(errorStyle.Render("✗ "+note.Text) + "\n")
		default:
			b.WriteString(infoStyle.Render("• "+note.Text) + "\n")
		}
	}
	return b.String()
}

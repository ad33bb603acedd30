// Command pos is the TableCRM point-of-sale terminal: authenticate
// with an API token, assemble a sale, and submit it as a draft or a
// conducted document.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/Danokray/Tablecrm/internal/app"
	"github.com/Danokray/Tablecrm/internal/config"
	"github.com/Danokray/Tablecrm/internal/credstore"
	"github.com/Danokray/Tablecrm/internal/domain/order"
	"github.com/Danokray/Tablecrm/internal/notify"
	"github.com/Danokray/Tablecrm/internal/search"
	"github.com/Danokray/Tablecrm/internal/submit"
)

// relay forwards engine events into the bubbletea program. The engine
// is built before the program exists, so delivery starts only after
// attach.
type relay struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *relay) attach(p *tea.Program) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

func (r *relay) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	configPath := flag.String("config", "", "path to the YAML config (optional)")
	flag.Parse()

	// .env is optional; real deployments set the variables directly.
	_ = godotenv.Load()

	cfg := config.LoadOrDefault(*configPath)
	if url := os.Getenv("TABLECRM_API_URL"); url != "" {
		cfg.API.BaseURL = url
	}

	logFile, err := os.OpenFile("pos.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err == nil {
		defer logFile.Close()
		log.SetOutput(logFile)
	}
	log.SetPrefix("")

	store, err := credstore.New("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up the token store: %v\n", err)
		os.Exit(1)
	}

	r := &relay{}
	engine := app.New(cfg, store,
		app.WithClientListener(func(s search.Snapshot[order.Client]) { r.send(clientSnapshotMsg(s)) }),
		app.WithProductListener(func(s search.Snapshot[order.Product]) { r.send(productSnapshotMsg(s)) }),
		app.WithSubmitListener(func(s submit.Status) { r.send(submitStatusMsg(s)) }),
		app.WithNoteListener(func(notes []notify.Note) { r.send(notesMsg(notes)) }),
	)

	m := newModel(engine)
	if token := os.Getenv("TABLECRM_TOKEN"); token != "" {
		m.tokenInput.SetValue(token)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	r.attach(p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "pos: %v\n", err)
		os.Exit(1)
	}
}

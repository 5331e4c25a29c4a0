package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"teachback/internal/chat"
	"teachback/internal/glossary"
	"teachback/internal/live"
	"teachback/internal/logging"
	"teachback/internal/persistence"
	"teachback/internal/pipeline"
	"teachback/internal/session"
	"teachback/internal/teachback"
	"teachback/internal/tour"
)

func newAppCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "app",
		Short: "Start the interactive teach-back shell",
		Long: "The shell has three tabs: teach-back (simplify a document and take the quiz), chat-helper (ask about terms)\n" +
			"and live-qa (voice questions). Type 'help' inside the shell for commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			sh, err := newShell(runCtx, ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer sh.close()
			return sh.run(runCtx)
		},
	}
}

// shell is the interactive client. It owns one orchestrator, chat and live
// session for its lifetime and implements the tour's tab switching.
type shell struct {
	c        *commandContext
	out      io.Writer
	lines    <-chan string
	colorize bool

	tab      tour.Tab
	session  *session.Session
	chat     *chat.Chat
	live     *live.Session
	glossary *glossary.Glossary
	tour     *tour.Coordinator
	counters *persistence.Counters
	monitor  *live.DeviceMonitor

	input      pipeline.Source
	pasting    bool
	pasted     []string
	lastStatus session.Status

	mu    sync.Mutex
	heard int
}

func newShell(ctx context.Context, c *commandContext, in io.Reader, out io.Writer) (*shell, error) {
	kv, err := c.store()
	if err != nil {
		return nil, err
	}
	s, err := c.newSession(ctx)
	if err != nil {
		return nil, err
	}
	g, err := c.newGlossary(ctx)
	if err != nil {
		return nil, err
	}
	sh := &shell{
		c:        c,
		out:      out,
		lines:    readLines(in),
		colorize: shouldColorize(out),
		tab:      tour.TeachBack,
		session:  s,
		chat:     c.newChat(ctx),
		live:     c.newLive(ctx),
		glossary: g,
		counters: persistence.NewCounters(kv),
	}
	sh.tour = tour.New(sh, sh, persistence.NewTourFlag(kv), c.log())
	s.OnChange(sh.onSession)
	sh.live.OnChange(sh.onLive)
	return sh, nil
}

func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 1<<20)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// CurrentTab implements tour.TabSwitcher.
func (sh *shell) CurrentTab() tour.Tab { return sh.tab }

// SwitchTab implements tour.TabSwitcher.
func (sh *shell) SwitchTab(t tour.Tab) {
	if sh.tab == t {
		return
	}
	sh.tab = t
	sh.println(renderStatusLine("Tab", statusInfo, t.Label(), sh.colorize))
}

// LoadDemo implements tour.DemoLoader.
func (sh *shell) LoadDemo() error {
	if err := sh.session.LoadDemo(); err != nil {
		return err
	}
	sh.chat.SetDemo(true)
	sh.live.SetDemo(true)
	return nil
}

func (sh *shell) close() {
	sh.live.Stop()
	if sh.monitor != nil {
		sh.monitor.Stop()
	}
}

func (sh *shell) println(a ...any) {
	fmt.Fprintln(sh.out, a...)
}

func (sh *shell) onSession(snap session.Snapshot) {
	if snap.Status == sh.lastStatus {
		return
	}
	sh.lastStatus = snap.Status
	if snap.Status.Busy() {
		sh.println(renderStatusLine("Status", statusInfo, statusMessage(snap.Status), sh.colorize))
	}
}

func (sh *shell) onLive(st live.Status) {
	if st.Demo {
		return
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if len(st.Transcript) < sh.heard {
		sh.heard = 0
	}
	printTranscript(sh.out, st.Transcript[sh.heard:])
	sh.heard = len(st.Transcript)
	if st.State == live.Idle && st.Notice != "" {
		sh.println(renderStatusLine("Live", statusWarn, st.Notice, sh.colorize))
	}
}

func (sh *shell) run(ctx context.Context) error {
	if _, err := sh.counters.Increment(ctx, persistence.TotalSessions); err != nil {
		sh.c.log().Warn("failed to count app start", logging.Error(err))
	}
	sh.println(disclaimerText())
	sh.println()

	if offer, err := sh.tour.ShouldOffer(ctx); err == nil && offer {
		if sh.confirm(ctx, "New here? Take a quick guided tour with sample content? [Y/n]", true) {
			if err := sh.startTour(); err != nil {
				sh.printErr(err)
			}
		}
	}
	sh.println("Type 'help' for commands.")

	for {
		sh.prompt()
		select {
		case <-ctx.Done():
			sh.println()
			return nil
		case line, ok := <-sh.lines:
			if !ok {
				sh.println()
				return nil
			}
			quit, err := sh.handle(ctx, line)
			if err != nil {
				sh.printErr(err)
			}
			if quit {
				return nil
			}
		}
	}
}

func (sh *shell) prompt() {
	switch {
	case sh.pasting:
		fmt.Fprint(sh.out, "... ")
	case sh.tour.Active():
		n, total := sh.tour.Progress()
		fmt.Fprintf(sh.out, "[tour %d/%d] %s> ", n, total, sh.tab)
	default:
		fmt.Fprintf(sh.out, "%s> ", sh.tab)
	}
}

// confirm asks a yes/no question; an empty answer takes def.
func (sh *shell) confirm(ctx context.Context, question string, def bool) bool {
	fmt.Fprint(sh.out, question+" ")
	select {
	case <-ctx.Done():
		return false
	case line, ok := <-sh.lines:
		if !ok {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def
		case "y", "yes":
			return true
		}
		return false
	}
}

func (sh *shell) printErr(err error) {
	msg := err.Error()
	if snap := sh.session.Snapshot(); snap.Notice.Level == session.NoticeError && snap.Notice.Text != "" && !errors.Is(err, session.ErrBusy) {
		msg = snap.Notice.Text
	}
	sh.println(renderStatusLine("Error", statusError, msg, sh.colorize))
}

func (sh *shell) handle(ctx context.Context, line string) (bool, error) {
	if sh.pasting {
		if strings.TrimSpace(line) == "." {
			sh.pasting = false
			sh.input = pipeline.Source{Text: strings.Join(sh.pasted, "\n")}
			sh.pasted = nil
			sh.println(renderStatusLine("Input", statusOK, fmt.Sprintf("%d characters. Type 'generate' to continue.", len(sh.input.Text)), sh.colorize))
			return false, sh.session.SetInput(sh.input)
		}
		sh.pasted = append(sh.pasted, line)
		return false, nil
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch name {
	case "quit", "exit":
		return true, nil
	case "help", "?":
		sh.printHelp()
		return false, nil
	case "tab":
		return false, sh.switchTabByName(args)
	case "1", "2", "3":
		return false, sh.switchTabByName(fields)
	case "disclaimer":
		sh.println(disclaimerText())
		return false, nil
	case "tour":
		return false, sh.startTour()
	case "next", "back", "skip", "finish":
		return false, sh.tourCommand(ctx, name)
	case "glossary":
		sh.listGlossary()
		return false, nil
	}

	switch sh.tab {
	case tour.ChatHelper:
		return false, sh.handleChat(ctx, name, args, line)
	case tour.LiveQA:
		return false, sh.handleLive(ctx, name)
	default:
		return false, sh.handleTeachBack(ctx, name, args, rest)
	}
}

func (sh *shell) switchTabByName(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tab teach-back|chat-helper|live-qa")
	}
	want := strings.ToLower(args[0])
	for i, t := range tour.Tabs() {
		if want == string(t) || want == fmt.Sprintf("%d", i+1) || want == strings.ToLower(strings.ReplaceAll(t.Label(), " ", "-")) {
			sh.SwitchTab(t)
			return nil
		}
	}
	return fmt.Errorf("unknown tab %q", args[0])
}

func (sh *shell) printHelp() {
	rows := [][]string{
		{"any", "tab <name|1-3>", "Switch between teach-back, chat-helper and live-qa"},
		{"any", "tour / next / back / skip", "Guided tour with sample content"},
		{"any", "glossary", "List saved terms"},
		{"any", "disclaimer / help / quit", ""},
		{"teach-back", "paste", "Enter document text; finish with a line containing only '.'"},
		{"teach-back", "file <path>", "Load text, PDF or image input"},
		{"teach-back", "generate", "Simplify the input and build the quiz"},
		{"teach-back", "override <category>", "Regenerate as " + categoryList()},
		{"teach-back", "answer <q> <option>", "Select an answer (1-based)"},
		{"teach-back", "submit / retry / show", "Check answers, try again, redisplay"},
		{"teach-back", "save / load / clear [keep]", "Saved session slot"},
		{"teach-back", "summary [path]", "Printable summary"},
		{"chat-helper", "<question>", "Ask about a term"},
		{"chat-helper", "save-term / remove <term>", "Keep or drop glossary terms"},
		{"live-qa", "start / stop", "Voice conversation through the microphone"},
	}
	sh.println(renderTable([]string{"Tab", "Command", "Description"}, rows, nil))
}

func (sh *shell) handleTeachBack(ctx context.Context, name string, args []string, rest string) error {
	switch name {
	case "paste":
		sh.pasting = true
		sh.pasted = nil
		sh.println("Paste the document, then a line with a single '.'")
		return nil
	case "file":
		if rest == "" {
			return fmt.Errorf("usage: file <path>")
		}
		cfg := sh.c.configValue()
		src, err := readSource(ctx, nil, "", rest, cfg.Extract.PDFToTextCommand, int64(cfg.Extract.MaxImageMB)<<20)
		if err != nil {
			return err
		}
		sh.input = src
		kind := fmt.Sprintf("%d characters", len(src.Text))
		if src.IsImage() {
			kind = "image " + src.Image.MIMEType
		}
		sh.println(renderStatusLine("Input", statusOK, kind+". Type 'generate' to continue.", sh.colorize))
		return sh.session.SetInput(src)
	case "generate":
		if err := sh.leaveDemo(ctx); err != nil {
			return err
		}
		if err := sh.session.Generate(ctx, sh.input); err != nil {
			return err
		}
	case "override":
		if len(args) == 0 {
			return fmt.Errorf("usage: override <%s>", categoryList())
		}
		category, err := teachback.ParseCategory(args[0])
		if err != nil {
			return err
		}
		if err := sh.session.OverrideCategory(ctx, category); err != nil {
			return err
		}
	case "answer":
		if len(args) != 2 {
			return fmt.Errorf("usage: answer <question> <option>")
		}
		snap := sh.session.Snapshot()
		q, err := parseIndex(args[0], "question", len(snap.Options))
		if err != nil {
			return err
		}
		opt, err := parseIndex(args[1], "option", len(snap.Options[q]))
		if err != nil {
			return err
		}
		if err := sh.session.Answer(q, snap.Options[q][opt]); err != nil {
			return err
		}
	case "submit":
		if _, err := sh.session.Submit(ctx); err != nil {
			return err
		}
	case "retry":
		if err := sh.session.TryAgain(); err != nil {
			return err
		}
	case "show":
	case "save":
		if err := sh.session.Save(ctx); err != nil {
			return err
		}
	case "load":
		if err := sh.session.Load(ctx); err != nil {
			return err
		}
		sh.exitDemo()
	case "clear":
		keep := len(args) > 0 && strings.HasPrefix(strings.ToLower(args[0]), "keep")
		if err := sh.session.Clear(ctx, keep); err != nil {
			return err
		}
		if !keep {
			sh.input = pipeline.Source{}
		}
		sh.exitDemo()
	case "summary":
		return sh.writeSummary(rest)
	default:
		return fmt.Errorf("unknown command %q (type 'help')", name)
	}
	renderSnapshot(sh.out, sh.session.Snapshot(), sh.colorize)
	return nil
}

// leaveDemo drops demo content before a real generation.
func (sh *shell) leaveDemo(ctx context.Context) error {
	if !sh.session.Snapshot().Demo {
		return nil
	}
	if err := sh.session.Clear(ctx, false); err != nil {
		return err
	}
	sh.exitDemo()
	return nil
}

func (sh *shell) exitDemo() {
	sh.chat.SetDemo(false)
	sh.live.SetDemo(false)
}

func (sh *shell) writeSummary(path string) error {
	text, err := buildSummary(sh.session.Snapshot(), timeNow())
	if err != nil {
		return err
	}
	if path == "" {
		sh.println(text)
		return nil
	}
	if err := writeTextFile(path, text); err != nil {
		return err
	}
	sh.println(renderStatusLine("Summary", statusOK, "written to "+path, sh.colorize))
	return nil
}

func (sh *shell) handleChat(ctx context.Context, name string, args []string, line string) error {
	switch name {
	case "save-term":
		turns := sh.chat.Turns()
		for i := len(turns) - 1; i >= 0; i-- {
			if turns[i].Definition != nil {
				return offerDefinition(ctx, sh.out, sh.glossary, turns[i])
			}
		}
		return fmt.Errorf("no definition to save yet")
	case "remove":
		if len(args) == 0 {
			return fmt.Errorf("usage: remove <term>")
		}
		term := strings.Join(args, " ")
		removed, err := sh.glossary.Remove(ctx, term)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%q is not in your glossary", term)
		}
		sh.println(renderStatusLine("Glossary", statusOK, "removed "+term, sh.colorize))
		return nil
	}
	if sh.chat.Demo() {
		for _, t := range sh.chat.Turns() {
			sh.println(turnLine(t))
		}
		return chat.ErrDemo
	}
	turn, err := streamReply(ctx, sh.out, sh.chat, line)
	if err != nil {
		return err
	}
	if turn.Definition != nil {
		sh.println("Type 'save-term' to add this definition to your glossary.")
	}
	return nil
}

func turnLine(t chat.Turn) string {
	speaker := "You"
	if t.Role == teachback.RoleModel {
		speaker = "Helper"
	}
	if t.Definition != nil {
		return fmt.Sprintf("%s: %s means %s", speaker, t.Definition.Term, t.Definition.Definition)
	}
	return fmt.Sprintf("%s: %s", speaker, t.Text)
}

func (sh *shell) listGlossary() {
	terms := sh.glossary.Terms()
	if len(terms) == 0 {
		sh.println("Your glossary is empty.")
		return
	}
	sh.println(renderTermTable(terms))
}

func (sh *shell) handleLive(ctx context.Context, name string) error {
	switch name {
	case "start":
		if sh.live.Status().Demo {
			printTranscript(sh.out, sh.live.Status().Transcript)
			return live.ErrDemo
		}
		sh.startMonitor(ctx)
		sh.mu.Lock()
		sh.heard = 0
		sh.mu.Unlock()
		if err := sh.live.Start(ctx); err != nil {
			if st := sh.live.Status(); st.Notice != "" {
				return fmt.Errorf("%s: %w", st.Notice, err)
			}
			return err
		}
		sh.println(renderStatusLine("Live", statusOK, "Listening. Type 'stop' to end.", sh.colorize))
		return nil
	case "stop":
		sh.live.Stop()
		sh.println(renderStatusLine("Live", statusInfo, "Session ended.", sh.colorize))
		return nil
	}
	return fmt.Errorf("unknown command %q (type 'help')", name)
}

func (sh *shell) startMonitor(ctx context.Context) {
	if sh.monitor != nil || !sh.c.configValue().Audio.MonitorDevices {
		return
	}
	sh.monitor = live.NewDeviceMonitor(sh.c.log(), func(device string) {
		sh.live.StopWithNotice(live.DeviceRemovedText, deviceRemovedError(device))
	})
	_ = sh.monitor.Start(ctx)
}

func (sh *shell) startTour() error {
	step, err := sh.tour.Start()
	if err != nil {
		return err
	}
	sh.showStep(step)
	return nil
}

func (sh *shell) showStep(step tour.Step) {
	n, total := sh.tour.Progress()
	for _, line := range renderSectionHeader(fmt.Sprintf("Tour %d/%d: %s", n, total, step.Title), sh.colorize) {
		sh.println(line)
	}
	sh.println(step.Content)
	sh.println("(next, back, skip)")
}

func (sh *shell) tourCommand(ctx context.Context, name string) error {
	if !sh.tour.Active() {
		return fmt.Errorf("no tour in progress; type 'tour' to start one")
	}
	var outcome tour.Outcome
	switch name {
	case "next":
		step, done, out, err := sh.tour.Next(ctx)
		if err != nil {
			return err
		}
		if !done {
			sh.showStep(step)
			return nil
		}
		outcome = out
	case "back":
		step, err := sh.tour.Back()
		if err != nil {
			return err
		}
		sh.showStep(step)
		return nil
	case "skip":
		out, err := sh.tour.Skip(ctx)
		if err != nil {
			return err
		}
		outcome = out
	case "finish":
		out, err := sh.tour.Finish(ctx)
		if err != nil {
			return err
		}
		outcome = out
	}
	sh.println(renderStatusLine("Tour", statusOK, "Finished", sh.colorize))
	if outcome.OfferDiscard && sh.confirm(ctx, tour.DiscardPrompt+" [Y/n]", true) {
		return sh.leaveDemo(ctx)
	}
	return nil
}

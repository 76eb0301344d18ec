// Package storereader is an interactive terminal inspector for a single store
// file. It shows the decoded catalog, the live records with their positions
// and a raw dump of every block.
package storereader

import (
	"fmt"
	"strconv"
	"strings"

	"blockstore/pkg/catalog"
	"blockstore/pkg/dberror"
	"blockstore/pkg/debug/ui"
	"blockstore/pkg/primitives"
	"blockstore/pkg/record"
	"blockstore/pkg/storage"
	"blockstore/pkg/storage/block"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type view int

const (
	catalogView view = iota
	recordsView
	blocksView
)

var viewNames = []string{"Catalog", "Records", "Blocks"}

const maxColWidth = 30

type readerKeyMap struct {
	ui.CommonKeyMap
	ui.NavigationKeyMap
}

var readerKeys = readerKeyMap{
	CommonKeyMap:     ui.CommonKeys,
	NavigationKeyMap: ui.NavigationKeys,
}

// dumpBlock is one block of the store as it sits on disk.
type dumpBlock struct {
	label string
	data  []byte
}

// Snapshot is everything the inspector displays, read in one pass. Size is
// the store file size in bytes and Digest fingerprints the live records in
// scan order.
type Snapshot struct {
	Catalog *catalog.Catalog
	Matches []storage.Match
	Size    int64
	Digest  string
	blocks  []dumpBlock
}

// Model is the bubbletea model of the inspector.
type Model struct {
	am        storage.AccessMethod
	blockSize int

	snap     *Snapshot
	err      error
	current  view
	block    int
	viewport viewport.Model
	width    int
}

type snapshotMsg struct {
	snap *Snapshot
	err  error
}

// NewModel returns an inspector for am. blockSize must match the one the
// store was written with.
func NewModel(am storage.AccessMethod, blockSize int) Model {
	return Model{
		am:        am,
		blockSize: blockSize,
		viewport:  viewport.New(80, 20),
	}
}

// Run opens the inspector in the alternate screen and blocks until it quits.
func Run(am storage.AccessMethod, blockSize int) error {
	p := tea.NewProgram(NewModel(am, blockSize), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return loadSnapshot(m.am, m.blockSize)
}

func loadSnapshot(am storage.AccessMethod, blockSize int) tea.Cmd {
	return func() tea.Msg {
		snap, err := ReadSnapshot(am, blockSize)
		return snapshotMsg{snap: snap, err: err}
	}
}

// ReadSnapshot decodes the catalog, scans the records and reads every block
// of the store, including the extension region of an ordered file.
func ReadSnapshot(am storage.AccessMethod, blockSize int) (*Snapshot, error) {
	cat, err := am.Catalog()
	if err != nil {
		return nil, err
	}
	matches, err := am.Scan()
	if err != nil {
		return nil, err
	}

	t, err := storage.OpenTable(am.Path(), am.Kind(), blockSize, "Inspect")
	if err != nil {
		return nil, err
	}
	raw, err := t.Blocks()
	t.Close()
	if err != nil {
		return nil, err
	}

	blocks := make([]dumpBlock, 0, len(raw))
	for i, data := range raw {
		blocks = append(blocks, dumpBlock{label: mainLabel(cat, i), data: data})
	}

	if ext, ok := am.(interface{ ExtensionPath() primitives.Filepath }); ok && ext.ExtensionPath().Exists() {
		extBlocks, err := readRegion(ext.ExtensionPath(), blockSize)
		if err != nil {
			return nil, err
		}
		for i, data := range extBlocks {
			blocks = append(blocks, dumpBlock{label: "extension block " + strconv.Itoa(i), data: data})
		}
	}

	size, err := am.Path().Size()
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIO, "Inspect", "StoreReader")
	}

	return &Snapshot{
		Catalog: cat,
		Matches: matches,
		Size:    size,
		Digest:  record.Digest(storage.Records(matches)),
		blocks:  blocks,
	}, nil
}

// Details is Summary followed by the file size and record digest.
func (s *Snapshot) Details() [][2]string {
	return append(Summary(s.Catalog),
		[2]string{"File size", strconv.FormatInt(s.Size, 10) + " bytes"},
		[2]string{"Record digest", s.Digest},
	)
}

func mainLabel(cat *catalog.Catalog, i int) string {
	if cat.Kind != catalog.StaticHash {
		return "block " + strconv.Itoa(i)
	}
	if i < cat.BlockCount {
		return "bucket " + strconv.Itoa(i)
	}
	return "overflow bucket " + strconv.Itoa(i-cat.BlockCount)
}

func readRegion(path primitives.Filepath, blockSize int) ([][]byte, error) {
	f, err := block.Open(path, blockSize, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := f.NumBlocks()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, n)
	for i := range out {
		if out[i], err = f.ReadBlock(primitives.BlockNumber(i)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Summary lists the catalog fields as label/value pairs in header order.
func Summary(cat *catalog.Catalog) [][2]string {
	pairs := [][2]string{
		{"Table", cat.TableName},
		{"Method", cat.Kind.String()},
		{"Fields", strings.Join(cat.Schema.FieldNames(), ", ")},
	}

	typeNames := make([]string, 0, cat.Schema.NumFields())
	for _, t := range cat.Schema.FieldTypes() {
		typeNames = append(typeNames, t.String())
	}
	pairs = append(pairs, [2]string{"Types", strings.Join(typeNames, ", ")})

	if cat.Kind.HasWidths() {
		widths := make([]string, 0, cat.Schema.NumFields())
		for _, w := range cat.Schema.FieldWidths() {
			widths = append(widths, strconv.Itoa(w))
		}
		pairs = append(pairs,
			[2]string{"Widths", strings.Join(widths, ", ")},
			[2]string{"Record size", strconv.Itoa(cat.RecordSize())},
			[2]string{"Blocking factor", strconv.Itoa(cat.BlockingFactor)},
		)
	}

	pairs = append(pairs, [2]string{"Records", strconv.Itoa(cat.RecordCount)})

	switch cat.Kind {
	case catalog.FixedHeap:
		pairs = append(pairs,
			[2]string{"Blocks", strconv.Itoa(cat.BlockCount)},
			[2]string{"Reclaimed slots", cat.Reclaimed.String()},
		)
	case catalog.VariableHeap, catalog.OrderedFile:
		pairs = append(pairs,
			[2]string{"Blocks", strconv.Itoa(cat.BlockCount)},
			[2]string{"Deleted", strconv.Itoa(cat.DeletedCount)},
		)
	case catalog.StaticHash:
		pairs = append(pairs,
			[2]string{"Buckets", strconv.Itoa(cat.BlockCount)},
			[2]string{"Overflow buckets", strconv.Itoa(cat.OverflowCount)},
		)
	}

	return append(pairs,
		[2]string{"Created", cat.Created.Format(catalog.TimestampLayout)},
		[2]string{"Modified", cat.Modified.Format(catalog.TimestampLayout)},
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap, m.err = msg.snap, msg.err
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport = viewport.New(max(msg.Width-4, 20), max(msg.Height-10, 5))
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, readerKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, readerKeys.NextTab):
			m.current = (m.current + 1) % view(len(viewNames))
			m.refresh()
			return m, nil
		case key.Matches(msg, readerKeys.PrevTab):
			m.current = (m.current + view(len(viewNames)) - 1) % view(len(viewNames))
			m.refresh()
			return m, nil
		case key.Matches(msg, readerKeys.Up):
			m.viewport.LineUp(1)
			return m, nil
		case key.Matches(msg, readerKeys.Down):
			m.viewport.LineDown(1)
			return m, nil
		}

		if m.current == blocksView && m.snap != nil {
			last := len(m.snap.blocks) - 1
			switch {
			case key.Matches(msg, readerKeys.NextPage):
				m.block = min(m.block+1, max(last, 0))
			case key.Matches(msg, readerKeys.PrevPage):
				m.block = max(m.block-1, 0)
			case key.Matches(msg, readerKeys.FirstPage):
				m.block = 0
			case key.Matches(msg, readerKeys.LastPage):
				m.block = max(last, 0)
			}
			m.refresh()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// refresh renders the active view into the viewport.
func (m *Model) refresh() {
	if m.snap == nil {
		return
	}
	switch m.current {
	case catalogView:
		m.viewport.SetContent(ui.RenderKeyValues(m.snap.Details()))
	case recordsView:
		m.viewport.SetContent(m.renderRecords())
	case blocksView:
		m.viewport.SetContent(m.renderBlock())
	}
	m.viewport.GotoTop()
}

func (m Model) renderRecords() string {
	if len(m.snap.Matches) == 0 {
		return "No records in this store.\n"
	}

	headers := append([]string{"block", "slot"}, m.snap.Catalog.Schema.FieldNames()...)
	rows := make([][]string, 0, len(m.snap.Matches))
	for _, match := range m.snap.Matches {
		row := []string{strconv.Itoa(int(match.Pos.Block)), strconv.Itoa(int(match.Pos.Slot))}
		for _, field := range match.Record {
			row = append(row, ui.TruncateString(field, maxColWidth))
		}
		rows = append(rows, row)
	}
	return ui.RenderTable(headers, rows, ui.ColumnWidths(headers, rows, maxColWidth), -1)
}

func (m Model) renderBlock() string {
	if len(m.snap.blocks) == 0 {
		return "The store has no blocks.\n"
	}
	b := m.snap.blocks[m.block]
	width := 64
	if m.width > 8 {
		width = min(m.width-8, m.blockSize)
	}
	return ui.RenderHeaderWithCount(b.label, -1) + "\n\n" + ui.RenderBlock(b.data, width)
}

func (m Model) View() string {
	if m.err != nil {
		return ui.RenderError(m.err)
	}

	var b strings.Builder
	b.WriteString(ui.RenderTitle("▤", "Store Inspector: "+m.am.Path().Base()) + "\n")
	b.WriteString(ui.RenderTabs(viewNames, int(m.current)) + "\n\n")

	if m.snap == nil {
		b.WriteString("Loading store...\n")
	} else {
		b.WriteString(m.viewport.View())
	}

	b.WriteString("\n" + m.renderStatusBar())
	b.WriteString("\n" + ui.HelpStyle.Render(m.help()))
	return b.String()
}

func (m Model) help() string {
	if m.current == blocksView {
		return "tab/←/→: switch view | n/p: next/prev block | g/G: first/last | ↑/↓: scroll | q: quit"
	}
	return "tab/←/→: switch view | ↑/↓: scroll | q: quit"
}

func (m Model) renderStatusBar() string {
	if m.snap == nil {
		return ui.RenderStatusBar(" Loading... ")
	}
	status := fmt.Sprintf(" %s | %s | %d records ", m.am.Path().Base(), m.snap.Catalog.Kind, len(m.snap.Matches))
	if m.current == blocksView && len(m.snap.blocks) > 0 {
		status += fmt.Sprintf("| Block %d/%d ", m.block+1, len(m.snap.blocks))
	}
	return ui.RenderStatusBar(status)
}

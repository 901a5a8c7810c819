// Package cli implements a command-line UI for the game.
package cli

import (
	"bufio"
	"fmt"
	"github.com/charmbracelet/lipgloss"
	"github.com/janpfeifer/quoridorGo/internal/moves"
	"github.com/janpfeifer/quoridorGo/internal/pathfinder"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/pkg/errors"
	"golang.org/x/term"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var ansiFilter = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// displayWidth of s removes its color/control sequences and returns the length of what is left.
func displayWidth(s string) int {
	return len(ansiFilter.ReplaceAllString(s, ""))
}

// terminalWidth returns the width of the terminal, or 0 if the output is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func (ui *UI) printCentered(block string) {
	lines := strings.Split(block, "\n")
	blockWidth := 0
	for _, line := range lines {
		blockWidth = max(blockWidth, displayWidth(line))
	}
	indent := max((ui.width-blockWidth)/2, 0)
	for _, line := range lines {
		if len(line) == 0 {
			_, _ = fmt.Fprintln(ui.out)
			continue
		}
		_, _ = fmt.Fprintf(ui.out, "%s%s\n", strings.Repeat(" ", indent), line)
	}
}

// ErrQuit is returned by ReadMove when the user asks to quit.
var ErrQuit = errors.New("user quit")

const parsingErrorMsg = "failed to read command 3 times"

// UI for a terminal.
type UI struct {
	color, clearScreen bool
	goals              Goals
	gen                *moves.Generator

	reader *bufio.Reader
	out    io.Writer
	width  int

	styleAI, styleHuman, styleWall, stylePath, styleBanner lipgloss.Style
}

// New creates a UI reading from the standard input and printing to the standard output.
func New(color, clearScreen bool, goals Goals) *UI {
	ui := NewWithIO(os.Stdin, os.Stdout, color, goals)
	ui.clearScreen = clearScreen
	ui.width = terminalWidth()
	return ui
}

// NewWithIO creates a UI with the given input and output, without clearing the screen.
func NewWithIO(in io.Reader, out io.Writer, color bool, goals Goals) *UI {
	ui := &UI{
		color:  color,
		goals:  goals,
		gen:    moves.NewGenerator(goals, nil).WithMaxWalls(0),
		reader: bufio.NewReader(in),
		out:    out,
	}
	if color {
		ui.styleAI = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("1")).Foreground(lipgloss.Color("15"))
		ui.styleHuman = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("2")).Foreground(lipgloss.Color("0"))
		ui.styleWall = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
		ui.stylePath = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
		ui.styleBanner = lipgloss.NewStyle().
			Background(lipgloss.Color("13")).
			Foreground(lipgloss.Color("0")).
			Padding(1, 2)
	}
	return ui
}

// CommandKind of a parsed user command.
type CommandKind uint8

const (
	CommandMove CommandKind = iota
	CommandPath
	CommandHelp
	CommandQuit
)

// Command parsed from the user input.
type Command struct {
	Kind CommandKind
	Move Move
}

var (
	stepParser = regexp.MustCompile(`^(?:m|move)[\s,]+(-?\d+)[\s,]+(-?\d+)$`)
	wallParser = regexp.MustCompile(`^(?:w|wall)[\s,]+(-?\d+)[\s,]+(-?\d+)[\s,]+([hv])$`)
)

// ParseCommand parses one line of user input:
//
//   - "m <col> <row>": move the pawn to (col, row).
//   - "w <col> <row> h|v": place a horizontal or vertical wall anchored at (col, row).
//   - "path": show the shortest path to the goal.
//   - "help" or "?": list the commands.
//   - "quit" or "q".
func ParseCommand(text string) (cmd Command, err error) {
	text = strings.ToLower(strings.TrimSpace(text))
	switch text {
	case "path", "p":
		return Command{Kind: CommandPath}, nil
	case "help", "?", "h":
		return Command{Kind: CommandHelp}, nil
	case "quit", "q", "exit":
		return Command{Kind: CommandQuit}, nil
	}
	var coords [2]int8
	parseCoords := func(matches []string) error {
		for ii := range coords {
			v, err := strconv.ParseInt(matches[1+ii], 10, 8)
			if err != nil {
				return errors.Wrapf(err, "failed to parse coordinate %q", matches[1+ii])
			}
			coords[ii] = int8(v)
		}
		return nil
	}
	if matches := stepParser.FindStringSubmatch(text); matches != nil {
		if err = parseCoords(matches); err != nil {
			return
		}
		return Command{Kind: CommandMove, Move: MoveTo(Pos(coords))}, nil
	}
	if matches := wallParser.FindStringSubmatch(text); matches != nil {
		if err = parseCoords(matches); err != nil {
			return
		}
		w := Wall{Anchor: Pos(coords), Horizontal: matches[3] == "h"}
		return Command{Kind: CommandMove, Move: PlaceWall(w)}, nil
	}
	return cmd, errors.Errorf("failed to parse %q, type \"help\" for the list of commands", text)
}

func (ui *UI) printHelp() {
	_, _ = fmt.Fprint(ui.out, `    Commands:
      m <col> <row>       move the pawn, e.g. "m 4 7"
      w <col> <row> h|v   place a wall anchored at (col, row), e.g. "w 3 4 h"
      path                show your shortest path to the goal
      quit                leave the game
`)
}

// ReadMove reads commands until a legal move for side is given. It gives up after 3 input
// errors in a row. It returns ErrQuit if the user quits.
func (ui *UI) ReadMove(s *GameState, side Side) (Move, error) {
	const (
		inputAreaColor = "\033[30;45;2m"        // Purplish background
		inputAreaReset = "\033[39;49;0m\033[0K" // Reset color and clear to the end-of-line.
		inputWidth     = 14                     // Width of the input area
	)
	for numErrs := 0; numErrs < 3; {
		_, _ = fmt.Fprintf(ui.out, "    %s move > ", ui.playerName(side))
		if ui.color {
			// Print "input area" in purple, and move the cursor back to the beginning of the input area.
			_, _ = fmt.Fprintf(ui.out, "%s%s\033[%dD", inputAreaColor, strings.Repeat(" ", inputWidth), inputWidth-1)
		}
		text, err := ui.reader.ReadString('\n')
		if ui.color {
			_, _ = fmt.Fprint(ui.out, inputAreaReset)
		}
		if err != nil {
			if err == io.EOF && strings.TrimSpace(text) == "" {
				return NoMove, ErrQuit
			}
			if err != io.EOF {
				return NoMove, errors.Wrap(err, "failed to read command")
			}
		}
		cmd, err := ParseCommand(text)
		if err != nil {
			_, _ = fmt.Fprintf(ui.out, "    * %v\n", err)
			numErrs++
			continue
		}
		switch cmd.Kind {
		case CommandQuit:
			return NoMove, ErrQuit
		case CommandHelp:
			ui.printHelp()
			continue
		case CommandPath:
			path := pathfinder.ShortestPath(s.Pos(side), ui.goals.For(side), s.WallSet())
			ui.PrintBoardWithPath(s, path)
			continue
		}
		if err := ui.gen.Check(s, side, cmd.Move); err != nil {
			_, _ = fmt.Fprintf(ui.out, "    * Sorry, %s is not valid: %v\n", cmd.Move, err)
			numErrs++
			continue
		}
		return cmd.Move, nil
	}
	return NoMove, errors.New(parsingErrorMsg)
}

func (ui *UI) playerName(side Side) string {
	switch side {
	case SideAI:
		return ui.render(ui.styleAI, "AI")
	case SideHuman:
		return ui.render(ui.styleHuman, "Human")
	}
	return side.String()
}

func (ui *UI) render(style lipgloss.Style, s string) string {
	if !ui.color {
		return s
	}
	return style.Render(s)
}

// Print the move number, the board and the status of each side.
func (ui *UI) Print(s *GameState, moveNumber int, next Side) {
	if ui.clearScreen {
		_, _ = fmt.Fprint(ui.out, "\033c")
	}
	_, _ = fmt.Fprintf(ui.out, "\nMove #%d\n\n", moveNumber)
	ui.PrintBoard(s)
	_, _ = fmt.Fprintln(ui.out)
	ui.PrintStatus(s)
	if !s.IsGameOver(ui.goals) {
		_, _ = fmt.Fprintf(ui.out, "\n    %s turn to play\n", ui.playerName(next))
	}
}

// PrintStatus prints the walls left and the shortest path length of each side.
func (ui *UI) PrintStatus(s *GameState) {
	ws := s.WallSet()
	for _, side := range []Side{SideAI, SideHuman} {
		dist := pathfinder.ShortestPathLength(s.Pos(side), ui.goals.For(side), ws)
		_, _ = fmt.Fprintf(ui.out, "    %s at %s: goal row %d, %d steps away, %d walls left\n",
			ui.playerName(side), s.Pos(side), ui.goals.For(side), dist, s.WallsLeft(side))
	}
}

// PrintBoard prints the board centered in the terminal.
func (ui *UI) PrintBoard(s *GameState) {
	ui.printCentered(ui.RenderBoard(s, nil))
}

// PrintBoardWithPath prints the board with the given path marked.
func (ui *UI) PrintBoardWithPath(s *GameState, path []Pos) {
	ui.printCentered(ui.RenderBoard(s, path))
}

// RenderBoard returns the board as text: row 0 at the top, cells as " . ", pawns as " A "
// and " H ", and path positions as " * ". Walls are drawn as "|" between columns and
// "---" between rows.
func (ui *UI) RenderBoard(s *GameState, path []Pos) string {
	ws := s.WallSet()
	onPath := make(map[Pos]bool, len(path))
	for _, pos := range path {
		onPath[pos] = true
	}

	var sb strings.Builder
	sb.WriteString("   ")
	for x := range int8(BoardSize) {
		fmt.Fprintf(&sb, " %d  ", x)
	}
	sb.WriteString("\n")
	for y := range int8(BoardSize) {
		fmt.Fprintf(&sb, "%d  ", y)
		for x := range int8(BoardSize) {
			pos := Pos{x, y}
			switch {
			case pos == s.AIPos && pos == s.HumanPos:
				sb.WriteString(ui.render(ui.styleAI, "A") + ui.render(ui.styleHuman, "H") + " ")
			case pos == s.AIPos:
				sb.WriteString(" " + ui.render(ui.styleAI, "A") + " ")
			case pos == s.HumanPos:
				sb.WriteString(" " + ui.render(ui.styleHuman, "H") + " ")
			case onPath[pos]:
				sb.WriteString(" " + ui.render(ui.stylePath, "*") + " ")
			default:
				sb.WriteString(" . ")
			}
			if x < BoardSize-1 {
				if ws.IsBlocked(pos, Pos{x + 1, y}) {
					sb.WriteString(ui.render(ui.styleWall, "|"))
				} else {
					sb.WriteString(" ")
				}
			}
		}
		fmt.Fprintf(&sb, "  %d\n", y)
		if y == BoardSize-1 {
			break
		}
		sb.WriteString("   ")
		for x := range int8(BoardSize) {
			if ws.IsBlocked(Pos{x, y}, Pos{x, y + 1}) {
				sb.WriteString(ui.render(ui.styleWall, "---"))
			} else {
				sb.WriteString("   ")
			}
			if x < BoardSize-1 {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// PrintWinner prints a banner with the winner, or a draw if there is none.
func (ui *UI) PrintWinner(s *GameState) {
	_, _ = fmt.Fprintln(ui.out)
	winner := s.Winner(ui.goals)
	var msg string
	if winner == SideInvalid {
		msg = "*** DRAW: no winner! ***"
	} else {
		msg = fmt.Sprintf("*** %s WINS!! Congratulations! ***", strings.ToUpper(winner.String()))
	}
	ui.printCentered(ui.render(ui.styleBanner, msg))
	_, _ = fmt.Fprintln(ui.out)
}

// Package ast defines the AST node types the executor consumes. These
// types are the contract with the parser collaborator (spec §6): the
// lexical/grammar layer that turns shell source text into a SequentialList
// is out of scope for this module's core, but the node shapes it must
// produce are owned here, in the teacher's tagged-sum-type style
// (core/ast/ast.go: an unexported marker method groups the variants of
// each sum).
package ast

// Node is implemented by every AST node. The unexported method prevents
// types outside this package from satisfying it by accident.
type Node interface {
	node()
}

// SequentialList is the AST root: ordered items separated by `;`, `&`, or
// newline.
type SequentialList struct {
	Items []Item
}

func (SequentialList) node() {}

// Item is one element of a SequentialList: either a foreground command
// (Async=false, awaited before the next item) or a background command
// (Async=true, spawned and joined only at top-level return).
type Item struct {
	Async bool
	Node  Node // *BooleanList, *Pipeline, *Subshell, or *SimpleCommand
}

// BoolOp is the operator joining a BooleanList's two sides.
type BoolOp int

const (
	BoolAnd BoolOp = iota // &&
	BoolOr                // ||
)

// BooleanList is a `&&`/`||`-joined chain, left-associative: Left may
// itself be a *BooleanList to represent `A && B && C`.
type BooleanList struct {
	Left  Node
	Op    BoolOp
	Right Node
}

func (*BooleanList) node() {}

// Pipeline is a chain of stages connected by `|`, optionally negated by a
// leading `!`.
type Pipeline struct {
	Negated bool
	Stages  []Node // each *SimpleCommand, *Subshell, etc.
}

func (*Pipeline) node() {}

// Subshell is `( ... )`: the inner list runs in a state clone whose
// mutations are discarded on return.
type Subshell struct {
	List SequentialList
}

func (*Subshell) node() {}

// SimpleCommand is a single invocation: optional assignment prefixes,
// the command words (word[0] is the command name when len(Words) > 0),
// and redirections.
type SimpleCommand struct {
	Assignments []Assignment
	Words       []Word
	Redirects   []Redirect
}

func (*SimpleCommand) node() {}

// Assignment is one `NAME=value` prefix on a SimpleCommand.
type Assignment struct {
	Name  string
	Value Word
}

// RedirectOp identifies a redirection operator.
type RedirectOp int

const (
	RedirectIn       RedirectOp = iota // <
	RedirectOut                        // >
	RedirectAppend                      // >>
	RedirectErr                         // 2>
	RedirectErrAppend                   // 2>>
	RedirectBoth                        // &>
	RedirectHereString                  // <<<
)

// Redirect is one redirection clause on a SimpleCommand.
type Redirect struct {
	FD     int // target file descriptor (0 for <, 1 for >/>>, 2 for 2>/2>>, ignored for &>)
	Op     RedirectOp
	Target Word
}

// Word is a sequence of segments concatenated to form one shell word
// before field splitting.
type Word struct {
	Segments []WordSegment
}

// SegmentKind discriminates WordSegment variants.
type SegmentKind int

const (
	SegLiteral      SegmentKind = iota // unquoted or single-quoted literal text
	SegDoubleQuoted                     // double-quoted text (may itself contain expansions, pre-resolved into Literal by the parser collaborator, or nested segments if the parser chooses to model them that way)
	SegParam                            // ${NAME} / $NAME / ${NAME:-default} etc.
	SegCommandSub                       // $(...)
	SegArithmeticSub                     // $((...))
	SegTilde                             // ~ or ~user
)

// ParamOp identifies the default/error/length operator inside a
// SegParam, matching spec §4.2's "parameter (with default/error/length
// expansions)".
type ParamOp int

const (
	ParamPlain        ParamOp = iota // $NAME
	ParamDefault                      // ${NAME:-word}
	ParamAssignDefault                // ${NAME:=word}
	ParamError                        // ${NAME:?word}
	ParamAlternate                    // ${NAME:+word}
	ParamLength                       // ${#NAME}
)

// WordSegment is one literal/expansion chunk of a Word.
type WordSegment struct {
	Kind SegmentKind

	// Quoted marks a segment as having appeared inside double quotes or as
	// single-quoted literal text: its expansion result is never subject to
	// field splitting or globbing, per spec §4.2's "field splitting of
	// unquoted expansions" and "globbing of unquoted words".
	Quoted bool

	// Literal text for SegLiteral/SegDoubleQuoted. For SegDoubleQuoted,
	// Inner may additionally hold nested expansion segments if the parser
	// models double quotes that way; Text alone is authoritative when
	// Inner is empty.
	Text  string
	Inner []WordSegment

	// SegParam fields.
	ParamName string
	ParamOp   ParamOp
	ParamArg  *Word // the word after :-, :=, :?, :+ (nil for ParamPlain/ParamLength)

	// SegCommandSub / SegArithmeticSub: the raw source text for the
	// nested construct, in SubSource. For SegCommandSub the parser
	// collaborator additionally supplies the pre-parsed nested list in
	// Sub; for SegArithmeticSub the executor's arithmetic evaluator
	// parses SubSource directly.
	SubSource string
	Sub       *SequentialList

	// SegTilde: optional user name for `~user` (empty for plain `~`).
	TildeUser string
}

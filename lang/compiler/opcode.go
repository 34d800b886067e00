package compiler

import "fmt"

// Instructions are encoded as a 32-bit opcode word followed by zero or more
// operand bytes. The word packs a main opcode into its low 16 bits and a
// set of secondary flag bits into its high 16 bits, the same split the
// reference interpreter's vm/opcode.h uses (full_opcode_type, SECONDARY_LSHIFT,
// SECONDARY_MASK/MAIN_MASK): a single word can therefore name both "what
// instruction" and "in what mode" without a second dispatch table.
//
// Unlike the reference compiler, which emits a generic GET opcode and later
// patches it to SET/DEFINE once lookahead resolves whether the name is being
// read or assigned (it compiles in one left-to-right pass with no AST to
// consult), this compiler walks an already-resolved AST: it always knows at
// emission time whether a name is read, written or declared, so GET/SET/
// DEFINE are distinct main opcodes per storage kind rather than a single
// patchable opcode. The secondary bits are instead used where the target
// truly varies at runtime: INC/DEC's prefix-vs-postfix result and which kind
// of slot (local/global/upvalue) they address.
type Opcode uint32

const (
	secondaryLshift = 16
	secondaryMask   = uint32(0xFFFF0000)
	mainMask        = uint32(0x0000FFFF)
)

// ComposeOpcode packs a main opcode and secondary flag bits into one word.
func ComposeOpcode(secondary, main uint16) Opcode {
	return Opcode(uint32(main) | uint32(secondary)<<secondaryLshift)
}

// Main extracts the main opcode from a composed instruction word.
func (op Opcode) Main() MainOp { return MainOp(uint32(op) & mainMask) }

// Secondary extracts the secondary flag bits from a composed instruction word.
func (op Opcode) Secondary() uint16 { return uint16((uint32(op) & secondaryMask) >> secondaryLshift) }

// PatchMain returns op with its main opcode replaced, secondary bits untouched.
func PatchMain(op Opcode, main MainOp) Opcode {
	return Opcode((uint32(op) &^ mainMask) | uint32(main))
}

// PatchSecondary returns op with its secondary bits replaced, main opcode untouched.
func PatchSecondary(op Opcode, secondary uint16) Opcode {
	return Opcode((uint32(op) &^ secondaryMask) | uint32(secondary)<<secondaryLshift)
}

func (op Opcode) String() string {
	return op.Main().String()
}

// Secondary flag bits, packed into the high 16 bits of an instruction word.
// Only INC/DEC use these; every other opcode leaves the secondary bits zero.
const (
	SecOpPrefix  uint16 = 1 << 0 // INC/DEC: prefix form, result is the new value
	SecOpPostfix uint16 = 1 << 1 // INC/DEC: postfix form, result is the old value
	SecOpLocal   uint16 = 1 << 2 // INC/DEC: operand addresses a local slot
	SecOpGlobal  uint16 = 1 << 3 // INC/DEC: operand addresses a global by name
	SecOpUpvalue uint16 = 1 << 4 // INC/DEC: operand addresses a closure upvalue
)

// MainOp is the opcode kind, independent of the secondary bits.
type MainOp uint16

const (
	NOP MainOp = iota

	// Constants and literals.
	CONSTANT       // u16 constant pool index
	CONSTANT_NIL   //nolint:revive
	CONSTANT_TRUE  //nolint:revive
	CONSTANT_FALSE //nolint:revive

	// Stack shuffling.
	POP   // pop one value
	POP_N //nolint:revive // u8 count
	DUP   // duplicate the top of stack

	// Variables. GET/SET/DEFINE are split by storage kind because codegen
	// always knows the kind in advance (see the package doc comment above).
	GET_LOCAL       //nolint:revive // u16 slot, relative to the frame's slot base
	SET_LOCAL       //nolint:revive // u16 slot
	GET_LOCAL_CELL  //nolint:revive // u16 slot, dereferences the boxed cell
	SET_LOCAL_CELL  //nolint:revive // u16 slot
	GET_UPVALUE     //nolint:revive // u16 upvalue index (always boxed)
	SET_UPVALUE     //nolint:revive // u16 upvalue index
	GET_GLOBAL      //nolint:revive // u16 name constant index
	SET_GLOBAL      //nolint:revive // u16 name constant index
	DEFINE_GLOBAL   //nolint:revive // u16 name constant index
	GET_PREDECLARED //nolint:revive // u16 name constant index (builtins/natives)
	GET_PROPERTY    //nolint:revive // u16 name constant index
	SET_PROPERTY    //nolint:revive // u16 name constant index
	GET_SUPER       //nolint:revive // u16 name constant index, resolved against this's super
	MAKE_CELL       //nolint:revive // pops a value, pushes a new cell wrapping it

	// Comparisons.
	EQUAL         //nolint:revive
	GREATER       //nolint:revive
	LESS          //nolint:revive
	GREATER_EQUAL //nolint:revive
	LESS_EQUAL    //nolint:revive

	// Arithmetic.
	ADD      //nolint:revive
	SUBTRACT //nolint:revive
	MULTIPLY //nolint:revive
	DIVIDE   //nolint:revive
	POW      //nolint:revive
	MOD      //nolint:revive
	INC      // u16 operand, kind/prefix-postfix in secondary bits
	DEC      //nolint:revive

	// Unary/misc.
	NOT    //nolint:revive
	NEGATE //nolint:revive
	PRINT  //nolint:revive

	// Control flow.
	JUMP          // u16 forward offset
	JUMP_IF_FALSE //nolint:revive // u16 forward offset; peeks, does not pop
	LOOP          // u16 backward offset

	// Calls.
	CALL         // u8 argument count
	INVOKE       // u16 name constant index, u8 argument count
	SUPER_INVOKE //nolint:revive // u16 name constant index, u8 argument count

	// Closures.
	CLOSURE       // u16 function index, then one (u8 isLocal, u16 index) pair per upvalue
	CLOSE_UPVALUE //nolint:revive
	RETURN        //nolint:revive

	// Classes.
	CLASS    // u16 index into Program.Classes
	INHERIT  //nolint:revive
	METHOD   //nolint:revive // u16 name constant index
	INSTANCE //nolint:revive // u16 class-name constant index (looked up as a global)

	// Containers.
	MAKE_LIST           //nolint:revive // u16 element count
	MAP_INIT            //nolint:revive // u16 pair count
	CONTAINER_GET       //nolint:revive
	CONTAINER_SET       //nolint:revive
	CONTAINER_GET_RANGE //nolint:revive
	ITER_INIT           //nolint:revive
	ITER_NEXT           //nolint:revive // u16 exit offset

	maxMainOp
)

var mainOpNames = [...]string{
	NOP:                 "nop",
	CONSTANT:            "constant",
	CONSTANT_NIL:        "constant_nil",
	CONSTANT_TRUE:       "constant_true",
	CONSTANT_FALSE:      "constant_false",
	POP:                 "pop",
	POP_N:               "pop_n",
	DUP:                 "dup",
	GET_LOCAL:           "get_local",
	SET_LOCAL:           "set_local",
	GET_LOCAL_CELL:      "get_local_cell",
	SET_LOCAL_CELL:      "set_local_cell",
	GET_UPVALUE:         "get_upvalue",
	SET_UPVALUE:         "set_upvalue",
	GET_GLOBAL:          "get_global",
	SET_GLOBAL:          "set_global",
	DEFINE_GLOBAL:       "define_global",
	GET_PREDECLARED:     "get_predeclared",
	GET_PROPERTY:        "get_property",
	SET_PROPERTY:        "set_property",
	GET_SUPER:           "get_super",
	MAKE_CELL:           "make_cell",
	EQUAL:               "equal",
	GREATER:             "greater",
	LESS:                "less",
	GREATER_EQUAL:       "greater_equal",
	LESS_EQUAL:          "less_equal",
	ADD:                 "add",
	SUBTRACT:            "subtract",
	MULTIPLY:            "multiply",
	DIVIDE:              "divide",
	POW:                 "pow",
	MOD:                 "mod",
	INC:                 "inc",
	DEC:                 "dec",
	NOT:                 "not",
	NEGATE:              "negate",
	PRINT:               "print",
	JUMP:                "jump",
	JUMP_IF_FALSE:       "jump_if_false",
	LOOP:                "loop",
	CALL:                "call",
	INVOKE:              "invoke",
	SUPER_INVOKE:        "super_invoke",
	CLOSURE:             "closure",
	CLOSE_UPVALUE:       "close_upvalue",
	RETURN:              "return",
	CLASS:               "class",
	INHERIT:             "inherit",
	METHOD:              "method",
	INSTANCE:            "instance",
	MAKE_LIST:           "make_list",
	MAP_INIT:            "map_init",
	CONTAINER_GET:       "container_get",
	CONTAINER_SET:       "container_set",
	CONTAINER_GET_RANGE: "container_get_range",
	ITER_INIT:           "iter_init",
	ITER_NEXT:           "iter_next",
}

func (op MainOp) String() string {
	if int(op) >= len(mainOpNames) || (mainOpNames[op] == "" && op != NOP) {
		return fmt.Sprintf("<invalid opcode %d>", op)
	}
	return mainOpNames[op]
}

var reverseLookupMainOp = func() map[string]MainOp {
	m := make(map[string]MainOp, len(mainOpNames))
	for op, name := range mainOpNames {
		if name != "" {
			m[name] = MainOp(op)
		}
	}
	return m
}()

// operandWidth is the number of fixed operand bytes following the opcode
// word, or -1 for an opcode whose operand length depends on other state
// (CLOSURE's per-upvalue descriptor list, sized by the referenced Funcode).
func operandWidth(op MainOp) int {
	switch op {
	case POP_N, CALL:
		return 1
	case CONSTANT, GET_LOCAL, SET_LOCAL, GET_LOCAL_CELL, SET_LOCAL_CELL,
		GET_UPVALUE, SET_UPVALUE, GET_GLOBAL, SET_GLOBAL, DEFINE_GLOBAL,
		GET_PREDECLARED, GET_PROPERTY, SET_PROPERTY, GET_SUPER,
		JUMP, JUMP_IF_FALSE, LOOP, CLASS, METHOD, INSTANCE,
		MAKE_LIST, MAP_INIT, INC, DEC, ITER_NEXT:
		return 2
	case INVOKE, SUPER_INVOKE:
		return 3
	case CLOSURE:
		return -1
	default:
		return 0
	}
}

// isJump reports whether op's operand is a relative code offset, which Dasm
// renders as an absolute target address.
func isJump(op MainOp) bool {
	switch op {
	case JUMP, JUMP_IF_FALSE, LOOP, ITER_NEXT:
		return true
	default:
		return false
	}
}

package classfile

import "fmt"

// Opcode is a JVM instruction opcode.
type Opcode byte

// Opcodes used by generated method bodies and by the interpreter.
const (
	OpNop             Opcode = 0x00
	OpAconstNull      Opcode = 0x01
	OpIconstM1        Opcode = 0x02
	OpIconst0         Opcode = 0x03
	OpIconst1         Opcode = 0x04
	OpIconst2         Opcode = 0x05
	OpIconst3         Opcode = 0x06
	OpIconst4         Opcode = 0x07
	OpIconst5         Opcode = 0x08
	OpLconst0         Opcode = 0x09
	OpLconst1         Opcode = 0x0A
	OpFconst0         Opcode = 0x0B
	OpFconst1         Opcode = 0x0C
	OpFconst2         Opcode = 0x0D
	OpDconst0         Opcode = 0x0E
	OpDconst1         Opcode = 0x0F
	OpBipush          Opcode = 0x10
	OpSipush          Opcode = 0x11
	OpLdc             Opcode = 0x12
	OpLdcW            Opcode = 0x13
	OpLdc2W           Opcode = 0x14
	OpIload           Opcode = 0x15
	OpLload           Opcode = 0x16
	OpFload           Opcode = 0x17
	OpDload           Opcode = 0x18
	OpAload           Opcode = 0x19
	OpIload0          Opcode = 0x1A
	OpLload0          Opcode = 0x1E
	OpFload0          Opcode = 0x22
	OpDload0          Opcode = 0x26
	OpAload0          Opcode = 0x2A
	OpAload3          Opcode = 0x2D
	OpIstore          Opcode = 0x36
	OpLstore          Opcode = 0x37
	OpFstore          Opcode = 0x38
	OpDstore          Opcode = 0x39
	OpAstore          Opcode = 0x3A
	OpIstore0         Opcode = 0x3B
	OpAstore3         Opcode = 0x4E
	OpPop             Opcode = 0x57
	OpPop2            Opcode = 0x58
	OpDup             Opcode = 0x59
	OpIadd            Opcode = 0x60
	OpLadd            Opcode = 0x61
	OpFadd            Opcode = 0x62
	OpDadd            Opcode = 0x63
	OpIsub            Opcode = 0x64
	OpLsub            Opcode = 0x65
	OpImul            Opcode = 0x68
	OpLmul            Opcode = 0x69
	OpI2l             Opcode = 0x85
	OpL2i             Opcode = 0x88
	OpIreturn         Opcode = 0xAC
	OpLreturn         Opcode = 0xAD
	OpFreturn         Opcode = 0xAE
	OpDreturn         Opcode = 0xAF
	OpAreturn         Opcode = 0xB0
	OpReturn          Opcode = 0xB1
	OpGetstatic       Opcode = 0xB2
	OpPutstatic       Opcode = 0xB3
	OpGetfield        Opcode = 0xB4
	OpPutfield        Opcode = 0xB5
	OpInvokevirtual   Opcode = 0xB6
	OpInvokespecial   Opcode = 0xB7
	OpInvokestatic    Opcode = 0xB8
	OpInvokeinterface Opcode = 0xB9
	OpNew             Opcode = 0xBB
	OpAthrow          Opcode = 0xBF
	OpCheckcast       Opcode = 0xC0
	OpWide            Opcode = 0xC4
)

var opcodeNames = map[Opcode]string{
	OpNop: "nop", OpAconstNull: "aconst_null", OpIconstM1: "iconst_m1",
	OpIconst0: "iconst_0", OpIconst1: "iconst_1", OpIconst2: "iconst_2",
	OpIconst3: "iconst_3", OpIconst4: "iconst_4", OpIconst5: "iconst_5",
	OpLconst0: "lconst_0", OpLconst1: "lconst_1",
	OpFconst0: "fconst_0", OpFconst1: "fconst_1", OpFconst2: "fconst_2",
	OpDconst0: "dconst_0", OpDconst1: "dconst_1",
	OpBipush: "bipush", OpSipush: "sipush",
	OpLdc: "ldc", OpLdcW: "ldc_w", OpLdc2W: "ldc2_w",
	OpIload: "iload", OpLload: "lload", OpFload: "fload", OpDload: "dload", OpAload: "aload",
	OpIstore: "istore", OpLstore: "lstore", OpFstore: "fstore", OpDstore: "dstore", OpAstore: "astore",
	OpPop: "pop", OpPop2: "pop2", OpDup: "dup",
	OpIadd: "iadd", OpLadd: "ladd", OpFadd: "fadd", OpDadd: "dadd",
	OpIsub: "isub", OpLsub: "lsub", OpImul: "imul", OpLmul: "lmul",
	OpI2l: "i2l", OpL2i: "l2i",
	OpIreturn: "ireturn", OpLreturn: "lreturn", OpFreturn: "freturn",
	OpDreturn: "dreturn", OpAreturn: "areturn", OpReturn: "return",
	OpGetstatic: "getstatic", OpPutstatic: "putstatic",
	OpGetfield: "getfield", OpPutfield: "putfield",
	OpInvokevirtual: "invokevirtual", OpInvokespecial: "invokespecial",
	OpInvokestatic: "invokestatic", OpInvokeinterface: "invokeinterface",
	OpNew: "new", OpAthrow: "athrow", OpCheckcast: "checkcast", OpWide: "wide",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	if base, idx, ok := ShortLoad(op); ok {
		return fmt.Sprintf("%s_%d", opcodeNames[base], idx)
	}
	if base, idx, ok := ShortStore(op); ok {
		return fmt.Sprintf("%s_%d", opcodeNames[base], idx)
	}
	return fmt.Sprintf("op(0x%02X)", byte(op))
}

// ShortLoad decodes the one-byte xload_<n> forms into the general load
// opcode and local index.
func ShortLoad(op Opcode) (Opcode, uint16, bool) {
	if op < OpIload0 || op > OpAload3 {
		return 0, 0, false
	}
	n := op - OpIload0
	bases := []Opcode{OpIload, OpLload, OpFload, OpDload, OpAload}
	return bases[n/4], uint16(n % 4), true
}

// ShortStore decodes the one-byte xstore_<n> forms.
func ShortStore(op Opcode) (Opcode, uint16, bool) {
	if op < OpIstore0 || op > OpAstore3 {
		return 0, 0, false
	}
	n := op - OpIstore0
	bases := []Opcode{OpIstore, OpLstore, OpFstore, OpDstore, OpAstore}
	return bases[n/4], uint16(n % 4), true
}

// IsLoad reports whether op is one of the general xload opcodes.
func IsLoad(op Opcode) bool { return op >= OpIload && op <= OpAload }

func shortLoadBase(op Opcode) Opcode {
	return OpIload0 + (op-OpIload)*4
}

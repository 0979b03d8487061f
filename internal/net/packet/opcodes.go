package packet

// Host → agent opcodes.
const (
	C_HELLO   byte = 1 // match parameters, once
	C_TICK    byte = 2 // one snapshot per tick
	C_GOODBYE byte = 3 // match over
)

// Agent → host opcodes.
const (
	S_WELCOME  byte = 101 // match id
	S_COMMAND  byte = 102 // tick + one command
	S_IDLE     byte = 103 // tick, no command
	S_FAREWELL byte = 104 // emitted count + digest
)

// Package key defines keyboard events as seen by the terminal client and
// their encoding into terminal input bytes.
//
// An Event carries a Key (a special key or KeyRune plus a character), the
// held Modifiers and a Phase (press or release). Encode turns a press event
// into the byte sequence an xterm-compatible terminal would send; Bytes does
// the same for friendly names such as "ctrl+c" or "pagedown", which is how
// scripted input refers to keys.
package key

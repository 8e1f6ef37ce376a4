package session

import (
	"fmt"
	"strings"
)

// Key is a keypad action that edits the buffer without going through the
// input guard.
type Key int

const (
	KeySign Key = iota
	KeyExpPlus
	KeyExpMinus
	KeyDot
	KeyBackspace
	KeyClear
	KeyPow
	KeyRoot
	KeyMod
	KeyAdd
	KeySub
	KeyMul
	KeyDiv
	KeyPercent
	KeyPi
	KeyEuler
	KeyAngle
)

var keyNames = [...]string{
	KeySign:      "sign",
	KeyExpPlus:   "e+",
	KeyExpMinus:  "e-",
	KeyDot:       "dot",
	KeyBackspace: "backspace",
	KeyClear:     "clear",
	KeyPow:       "pow",
	KeyRoot:      "root",
	KeyMod:       "mod",
	KeyAdd:       "add",
	KeySub:       "sub",
	KeyMul:       "mul",
	KeyDiv:       "div",
	KeyPercent:   "percent",
	KeyPi:        "pi",
	KeyEuler:     "euler",
	KeyAngle:     "deg",
}

var keyAliases = map[string]Key{
	"±":     KeySign,
	"+/-":   KeySign,
	".":     KeyDot,
	"bs":    KeyBackspace,
	"c":     KeyClear,
	"xⁿ":    KeyPow,
	"^":     KeyPow,
	"ⁿ√":    KeyRoot,
	"√":     KeyRoot,
	"m":     KeyMod,
	"+":     KeyAdd,
	"-":     KeySub,
	"*":     KeyMul,
	"/":     KeyDiv,
	"%":     KeyPercent,
	"π":     KeyPi,
	"γ":     KeyEuler,
	"ε":     KeyEuler,
	"angle": KeyAngle,
	"rad":   KeyAngle,
}

func (k Key) String() string {
	if k < 0 || int(k) >= len(keyNames) {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return keyNames[k]
}

// ParseKey resolves a key by name or by the glyph on its keypad button.
func ParseKey(name string) (Key, error) {
	s := strings.TrimSpace(name)
	if k, ok := keyAliases[s]; ok {
		return k, nil
	}
	lower := strings.ToLower(s)
	for k, n := range keyNames {
		if n == lower {
			return Key(k), nil
		}
	}
	if k, ok := keyAliases[lower]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

// operatorText is the text a binary operator key appends.
func (k Key) operatorText() string {
	switch k {
	case KeyPow:
		return " ^ "
	case KeyRoot:
		return " √ "
	case KeyMod:
		return " m "
	case KeyAdd:
		return " + "
	case KeySub:
		return " - "
	case KeyMul:
		return " * "
	case KeyDiv:
		return " / "
	case KeyPercent:
		return " % "
	}
	return ""
}

// Package guard corrects the expression buffer as it is typed.
//
// After every single-character insertion the session asks the Guard what to
// do with the buffer. The Guard runs an ordered list of rules; the first rule
// whose predicate matches decides the Action (keep the buffer, drop the last
// character, or drop the last n characters). Correction is silent: the user
// simply never sees a doubled operator, a stray letter or a second decimal
// point.
//
// Rules only inspect the buffer and the inserted character. They hold no
// state, so a Guard is safe for concurrent use.
package guard

/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package processor

import "sort"

// edit is a single span replacement addressed by byte offsets into the
// buffer's original source.
type edit struct {
	start, end  uint
	replacement string
}

// editBuffer accumulates span replacements against an immutable source
// and applies them all at once, in descending start-position order, so
// that earlier edits never see offsets invalidated by later ones.
type editBuffer struct {
	src   []byte
	edits []edit
}

func newEditBuffer(src []byte) *editBuffer {
	return &editBuffer{src: src}
}

func (b *editBuffer) replace(start, end uint, replacement string) {
	b.edits = append(b.edits, edit{start, end, replacement})
}

func (b *editBuffer) remove(start, end uint) {
	b.replace(start, end, "")
}

func (b *editBuffer) insertBefore(at uint, text string) {
	b.edits = append(b.edits, edit{at, at, text})
}

// apply returns the source with every accumulated edit applied.
func (b *editBuffer) apply() []byte {
	sort.SliceStable(b.edits, func(i, j int) bool {
		if b.edits[i].start != b.edits[j].start {
			return b.edits[i].start > b.edits[j].start
		}
		return b.edits[i].end > b.edits[j].end
	})

	out := append([]byte(nil), b.src...)
	for _, e := range b.edits {
		next := make([]byte, 0, len(out)-int(e.end-e.start)+len(e.replacement))
		next = append(next, out[:e.start]...)
		next = append(next, e.replacement...)
		next = append(next, out[e.end:]...)
		out = next
	}
	return out
}

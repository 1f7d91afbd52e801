package diff

import "bytes"

func splitLines(content []byte) [][]byte {
	if len(content) == 0 {
		return nil
	}
	return bytes.Split(bytes.TrimSuffix(content, []byte{'\n'}), []byte{'\n'})
}

// buildLCSMatrix fills matrix[i][j] with the length of the longest common
// subsequence of oldLines[i:] and newLines[j:].
func buildLCSMatrix(oldLines, newLines [][]byte) [][]int {
	matrix := make([][]int, len(oldLines)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(newLines)+1)
	}

	for i := len(oldLines) - 1; i >= 0; i-- {
		for j := len(newLines) - 1; j >= 0; j-- {
			if bytes.Equal(oldLines[i], newLines[j]) {
				matrix[i][j] = matrix[i+1][j+1] + 1
			} else {
				matrix[i][j] = max(matrix[i+1][j], matrix[i][j+1])
			}
		}
	}

	return matrix
}

// editScript walks the matrix forwards, preferring deletions before
// additions inside a changed region.
func editScript(oldLines, newLines [][]byte, lcs [][]int) []Line {
	var script []Line
	i, j := 0, 0

	for i < len(oldLines) || j < len(newLines) {
		switch {
		case i < len(oldLines) && j < len(newLines) && bytes.Equal(oldLines[i], newLines[j]):
			script = append(script, Line{Type: Context, Content: string(oldLines[i]), OldNum: i + 1, NewNum: j + 1})
			i++
			j++
		case i < len(oldLines) && (j == len(newLines) || lcs[i+1][j] >= lcs[i][j+1]):
			script = append(script, Line{Type: Deletion, Content: string(oldLines[i]), OldNum: i + 1})
			i++
		default:
			script = append(script, Line{Type: Addition, Content: string(newLines[j]), NewNum: j + 1})
			j++
		}
	}

	return script
}

// group cuts the script into hunks holding each run of changes plus up to
// contextLines of surrounding context. Runs closer than twice the context
// share a hunk.
func (e *Engine) group(script []Line) []Hunk {
	var hunks []Hunk

	k := 0
	for k < len(script) {
		if script[k].Type == Context {
			k++
			continue
		}

		start := max(0, k-e.contextLines)
		end := k
		for end < len(script) {
			if script[end].Type != Context {
				end++
				continue
			}
			run := end
			for run < len(script) && script[run].Type == Context {
				run++
			}
			if run == len(script) || run-end > 2*e.contextLines {
				break
			}
			end = run
		}
		stop := min(len(script), end+e.contextLines)

		hunks = append(hunks, newHunk(script, start, stop))
		k = stop
	}

	return hunks
}

func newHunk(script []Line, start, stop int) Hunk {
	h := Hunk{Lines: append([]Line(nil), script[start:stop]...)}

	// Lines consumed on each side before the hunk.
	oldBefore, newBefore := 0, 0
	for _, line := range script[:start] {
		if line.Type != Addition {
			oldBefore++
		}
		if line.Type != Deletion {
			newBefore++
		}
	}

	for _, line := range h.Lines {
		if line.Type != Addition {
			h.OldLines++
		}
		if line.Type != Deletion {
			h.NewLines++
		}
	}

	h.OldStart = oldBefore
	if h.OldLines > 0 {
		h.OldStart++
	}
	h.NewStart = newBefore
	if h.NewLines > 0 {
		h.NewStart++
	}
	return h
}

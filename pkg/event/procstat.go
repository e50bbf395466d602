package event

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadPPID resolves a pid's parent pid by scanning /proc/<pid>/stat. The
// comm field can itself contain spaces and parentheses, so the parse finds
// the *last* ')' in the line and splits the remaining whitespace-separated
// fields from there — state is field 1, ppid is field 2.
func ReadPPID(pid uint32) (uint32, error) {
	path := fmt.Sprintf("/proc/%d/stat", pid)
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("event: read %s: %w", path, err)
	}

	text := string(content)
	end := strings.LastIndexByte(text, ')')
	if end < 0 {
		return 0, fmt.Errorf("event: malformed %s", path)
	}

	fields := strings.Fields(text[end+1:])
	if len(fields) < 2 {
		return 0, fmt.Errorf("event: %s has too few fields", path)
	}

	ppid, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("event: parse ppid from %s: %w", path, err)
	}
	return uint32(ppid), nil
}

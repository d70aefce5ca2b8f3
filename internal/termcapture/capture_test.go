package termcapture

import "testing"

func TestExtractCommandOutput_DropsEchoAndPrompt(t *testing.T) {
	baseline := "root@gw:~# "
	newRaw := baseline + "ls -la\nfile1\nfile2\nroot@gw:~# "
	got := ExtractCommandOutput(newRaw, baseline, "ls -la")
	want := "file1\nfile2"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractCommandOutput_IdempotentOnNoNewOutput(t *testing.T) {
	raw := "root@gw:~# ls\nfile1\nroot@gw:~# "
	if got := ExtractCommandOutput(raw, raw, "ls"); got != "" {
		t.Errorf("got %q, want empty string for identical baseline/newRaw", got)
	}
}

func TestExtractCommandOutput_NoEchoLineLeftIntact(t *testing.T) {
	baseline := ""
	newRaw := "some output\nmore output\nroot@gw:~# "
	got := ExtractCommandOutput(newRaw, baseline, "nomatch")
	want := "some output\nmore output"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

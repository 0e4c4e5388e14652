package target

import "testing"

func TestValidTag(t *testing.T) {
	valid := []string{"1.2.3", "v1.2.3", "0.0.0", "v10.20.30"}
	for _, tag := range valid {
		if !ValidTag(tag) {
			t.Errorf("expected %q to be a valid tag", tag)
		}
	}
	invalid := []string{"1.2", "abc", "v1.2", "1.2.3.4", "v", "", "1.2.x", "release-1.2.3"}
	for _, tag := range invalid {
		if ValidTag(tag) {
			t.Errorf("expected %q to be rejected", tag)
		}
	}
}

func TestArchiveNameLinux(t *testing.T) {
	tgt, err := FindByTriple("x86_64-unknown-linux-gnu")
	if err != nil {
		t.Fatalf("FindByTriple failed: %v", err)
	}
	if got := tgt.ArchiveName("tv", "1.2.3"); got != "tv-1.2.3-x86_64-unknown-linux-gnu.tar.gz" {
		t.Fatalf("unexpected archive name: %s", got)
	}
	if got := tgt.ChecksumName("tv", "1.2.3"); got != "tv-1.2.3-x86_64-unknown-linux-gnu.sha256" {
		t.Fatalf("unexpected checksum name: %s", got)
	}
}

func TestArchiveNameStripsVPrefix(t *testing.T) {
	tgt, _ := FindByTriple("x86_64-apple-darwin")
	if got := tgt.ArchiveName("tv", "v1.2.3"); got != "tv-1.2.3-x86_64-apple-darwin.tar.gz" {
		t.Fatalf("v prefix should not appear in artifact name, got: %s", got)
	}
}

func TestWindowsTargetUsesZip(t *testing.T) {
	tgt, err := FindByTriple("x86_64-pc-windows-msvc")
	if err != nil {
		t.Fatalf("FindByTriple failed: %v", err)
	}
	if tgt.Archive != Zip {
		t.Fatal("windows target must use zip")
	}
	if got := tgt.ArchiveName("tv", "1.2.3"); got != "tv-1.2.3-x86_64-pc-windows-msvc.zip" {
		t.Fatalf("unexpected archive name: %s", got)
	}
	if got := tgt.ChecksumName("tv", "1.2.3"); got != "tv-1.2.3-x86_64-pc-windows-msvc.zip.sha256" {
		t.Fatalf("unexpected checksum name: %s", got)
	}
	if tgt.BinaryName("tv") != "tv.exe" {
		t.Fatalf("expected tv.exe, got %s", tgt.BinaryName("tv"))
	}
}

func TestSupportedMatrix(t *testing.T) {
	if len(Supported) != 7 {
		t.Fatalf("expected 7 supported targets, got %d", len(Supported))
	}
	cross := map[string]bool{}
	for _, tgt := range Supported {
		cross[tgt.Triple] = tgt.Cross
	}
	if !cross["aarch64-unknown-linux-gnu"] || !cross["i686-unknown-linux-gnu"] {
		t.Fatal("aarch64 and i686 linux targets must be marked cross")
	}
	if cross["x86_64-unknown-linux-gnu"] {
		t.Fatal("x86_64 linux gnu should build natively")
	}
}

func TestFindByTripleUnknown(t *testing.T) {
	if _, err := FindByTriple("mips-unknown-linux-gnu"); err == nil {
		t.Fatal("expected error for unsupported triple")
	}
}

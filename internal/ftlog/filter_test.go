// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ftlog

import "testing"

func TestSeverityTotalOrder(t *testing.T) {
	ordered := []Severity{
		Trace, Debug, OptionOff, Verbose, OptionOn, Info, Notice,
		Warn, Error, Critical, Alert, Emergency, Exit, Abort,
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1] >= ordered[i] {
			t.Fatalf("%s should order strictly below %s", ordered[i-1], ordered[i])
		}
	}
}

func TestParseSeverityRoundTrip(t *testing.T) {
	for s := Trace; s <= Abort; s++ {
		got, ok := ParseSeverity(s.String())
		if !ok || got != s {
			t.Fatalf("ParseSeverity(%q) = %v, %v; want %v, true", s.String(), got, ok, s)
		}
	}
	if _, ok := ParseSeverity("shouting"); ok {
		t.Fatalf("ParseSeverity accepted an unknown name")
	}
}

func TestParseSelectorItemsAndChannels(t *testing.T) {
	sel, err := ParseSelector("+linker -jit=debug +*>warn @stderr:color")
	if err != nil {
		t.Fatalf("ParseSelector: %v", err)
	}
	if got := sel.Channels(); len(got) != 1 || got[0] != "stderr" {
		t.Fatalf("Channels() = %v, want [stderr]", got)
	}
	cases := []struct {
		category string
		sev      Severity
		want     bool
	}{
		{"linker", Trace, true},       // bare +name admits every level
		{"jit", Debug, false},         // -name=level excludes that exact level
		{"jit", Error, true},          // ...but the +*>warn item re-admits above warn
		{"dispatch", Error, true},     // wildcard above warn
		{"dispatch", Info, false},     // below the wildcard threshold, no other item
		{"unmentioned", Abort, true},  // wildcard still matches unmentioned categories
		{"unmentioned", Trace, false}, // selectors are opt-in
	}
	for _, c := range cases {
		if got := sel.Allows(c.category, c.sev); got != c.want {
			t.Fatalf("Allows(%q, %s) = %v, want %v", c.category, c.sev, got, c.want)
		}
	}
}

func TestParseSelectorLastMatchWins(t *testing.T) {
	sel, err := ParseSelector("+firtree -firtree")
	if err != nil {
		t.Fatalf("ParseSelector: %v", err)
	}
	if sel.Allows("firtree", Critical) {
		t.Fatalf("later -firtree item should override the earlier +firtree")
	}
}

func TestParseSelectorRejectsMalformedTokens(t *testing.T) {
	for _, s := range []string{"firtree", "+", "@", "+x<shouting"} {
		if _, err := ParseSelector(s); err == nil {
			t.Fatalf("ParseSelector(%q) succeeded, want error", s)
		}
	}
}

func TestFromEnvironmentOverridesCompiledInDefault(t *testing.T) {
	t.Setenv(EnvVar, "+env")
	sel, err := FromEnvironment("+compiled")
	if err != nil {
		t.Fatalf("FromEnvironment: %v", err)
	}
	if !sel.Allows("env", Info) || sel.Allows("compiled", Info) {
		t.Fatalf("environment selector did not take precedence")
	}

	t.Setenv(EnvVar, "")
	sel, err = FromEnvironment("+compiled")
	if err != nil {
		t.Fatalf("FromEnvironment (unset): %v", err)
	}
	if !sel.Allows("compiled", Info) {
		t.Fatalf("compiled-in default not used when the variable is unset")
	}
}

func TestDiagFormatting(t *testing.T) {
	d := Diag{File: "f.kernel", Line: 3, Column: 7, Severity: Error, Kind: "TypeMismatch", Message: "cannot assign float to vec4"}
	want := "f.kernel:3:7: error: cannot assign float to vec4"
	if d.String() != want {
		t.Fatalf("Diag.String() = %q, want %q", d.String(), want)
	}
}

func TestDiagListLimitRecoverable(t *testing.T) {
	var l DiagList
	func() {
		defer Recover()
		for i := 0; i < DiagLimit+10; i++ {
			l.Addf("f", 1, 1, Error, "SyntaxError", "diag %d", i)
		}
		t.Fatalf("Add never hit the diagnostic limit")
	}()
	if len(l) <= DiagLimit {
		t.Fatalf("diagnostics collected before the abort were lost: %d", len(l))
	}
	if !l.HasErrors() {
		t.Fatalf("HasErrors() = false for an all-error list")
	}
}

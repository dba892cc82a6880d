package privacy

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestEngine() *Engine {
	return New(DefaultConfig(), nil, zap.NewNop())
}

func TestMaskEmail(t *testing.T) {
	e := newTestEngine()

	t.Run("KeepsFirstAndLastOfLocalPart", func(t *testing.T) {
		if got := e.Mask("user@example.com", TypeEmail, nil); got != "u***r@example.com" {
			t.Errorf("got %q, want %q", got, "u***r@example.com")
		}
	})

	t.Run("ShortLocalPartFullyMasked", func(t *testing.T) {
		if got := e.Mask("ab@x.com", TypeEmail, nil); got != "**@x.com" {
			t.Errorf("got %q, want %q", got, "**@x.com")
		}
	})

	t.Run("DomainNeverMasked", func(t *testing.T) {
		got := e.Mask("someone@internal.example.org", TypeEmail, nil)
		if !strings.HasSuffix(got, "@internal.example.org") {
			t.Errorf("domain was altered: %q", got)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		once := e.Mask("user@example.com", TypeEmail, nil)
		twice := e.Mask(once, TypeEmail, nil)
		if once != twice {
			t.Errorf("email masking not idempotent: %q vs %q", once, twice)
		}
	})
}

func TestMaskPhone(t *testing.T) {
	e := newTestEngine()

	t.Run("KeepsLastFourAndSeparators", func(t *testing.T) {
		if got := e.Mask("555-123-4567", TypePhone, nil); got != "***-***-4567" {
			t.Errorf("got %q, want %q", got, "***-***-4567")
		}
	})

	t.Run("ParenthesizedFormatPreserved", func(t *testing.T) {
		if got := e.Mask("(555) 123-4567", TypePhone, nil); got != "(***) ***-4567" {
			t.Errorf("got %q, want %q", got, "(***) ***-4567")
		}
	})

	t.Run("CustomShowLast", func(t *testing.T) {
		if got := e.Mask("5551234567", TypePhone, &MaskingOptions{ShowLast: 2}); got != "********67" {
			t.Errorf("got %q, want %q", got, "********67")
		}
	})

	t.Run("PartialOptionsKeepLastFourDefault", func(t *testing.T) {
		if got := e.Mask("555-123-4567", TypePhone, &MaskingOptions{MaskChar: "#"}); got != "###-###-4567" {
			t.Errorf("got %q, want %q", got, "###-###-4567")
		}
	})
}

func TestMaskSSN(t *testing.T) {
	e := newTestEngine()

	t.Run("KeepsLastFour", func(t *testing.T) {
		if got := e.Mask("123-45-6789", TypeSSN, nil); got != "***-**-6789" {
			t.Errorf("got %q, want %q", got, "***-**-6789")
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		once := e.Mask("123-45-6789", TypeSSN, nil)
		twice := e.Mask(once, TypeSSN, nil)
		if once != twice {
			t.Errorf("ssn masking not idempotent: %q vs %q", once, twice)
		}
	})
}

func TestMaskCreditCard(t *testing.T) {
	e := newTestEngine()

	t.Run("DefaultShowsLastFourOnly", func(t *testing.T) {
		if got := e.Mask("4532015112830366", TypeCreditCard, nil); got != "************0366" {
			t.Errorf("got %q, want %q", got, "************0366")
		}
	})

	t.Run("ShowFirstFour", func(t *testing.T) {
		got := e.Mask("4532015112830366", TypeCreditCard, &MaskingOptions{ShowFirst: 4, ShowLast: 4})
		if got != "4532********0366" {
			t.Errorf("got %q, want %q", got, "4532********0366")
		}
	})

	t.Run("SeparatorsPreserved", func(t *testing.T) {
		if got := e.Mask("4532-0151-1283-0366", TypeCreditCard, nil); got != "****-****-****-0366" {
			t.Errorf("got %q, want %q", got, "****-****-****-0366")
		}
	})
}

func TestMaskIBAN(t *testing.T) {
	e := newTestEngine()

	got := e.Mask("DE89370400440532013000", TypeIBAN, nil)
	want := "DE " + strings.Repeat("*", 16) + " 3000"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	t.Run("SpacedInputUsesCleanedLength", func(t *testing.T) {
		got := e.Mask("DE89 3704 0044 0532 0130 00", TypeIBAN, nil)
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

func TestMaskIPAddress(t *testing.T) {
	e := newTestEngine()

	t.Run("IPv4MasksFirstTwoOctets", func(t *testing.T) {
		if got := e.Mask("192.168.45.67", TypeIPAddress, nil); got != "***.***.45.67" {
			t.Errorf("got %q, want %q", got, "***.***.45.67")
		}
	})

	t.Run("IPv6KeepsOuterGroups", func(t *testing.T) {
		got := e.Mask("2001:0db8:85a3:0000:0000:8a2e:0370:7334", TypeIPAddress, nil)
		want := "2001:****:****:****:****:****:****:7334"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

func TestMaskUKTypes(t *testing.T) {
	e := newTestEngine()

	t.Run("NINOKeepsSuffix", func(t *testing.T) {
		if got := e.Mask("QQ123456C", TypeUKNINO, nil); got != "********C" {
			t.Errorf("got %q, want %q", got, "********C")
		}
	})

	t.Run("PostcodeMasksOutwardCode", func(t *testing.T) {
		if got := e.Mask("SW1A 1AA", TypeUKPostcode, nil); got != "**** 1AA" {
			t.Errorf("got %q, want %q", got, "**** 1AA")
		}
	})

	t.Run("PostcodeWithoutSpaceKeepsLastThree", func(t *testing.T) {
		if got := e.Mask("SW1A1AA", TypeUKPostcode, nil); got != "****1AA" {
			t.Errorf("got %q, want %q", got, "****1AA")
		}
	})
}

func TestMaskName(t *testing.T) {
	e := newTestEngine()

	t.Run("KeepsInitials", func(t *testing.T) {
		if got := e.Mask("John Smith", TypeName, nil); got != "J*** S****" {
			t.Errorf("got %q, want %q", got, "J*** S****")
		}
	})

	t.Run("SingleCharTokenPassesThrough", func(t *testing.T) {
		if got := e.Mask("J Smith", TypeName, nil); got != "J S****" {
			t.Errorf("got %q, want %q", got, "J S****")
		}
	})
}

func TestMaskCustom(t *testing.T) {
	e := newTestEngine()

	t.Run("MasksEachPatternMatch", func(t *testing.T) {
		got := e.Mask("order 12345 shipped", TypeCustom, &MaskingOptions{Pattern: `\d+`})
		if got != "order ***** shipped" {
			t.Errorf("got %q, want %q", got, "order ***** shipped")
		}
	})

	t.Run("MissingPatternFallsBackToGeneric", func(t *testing.T) {
		got := e.Mask("secret", TypeCustom, nil)
		if got != "******" {
			t.Errorf("got %q, want %q", got, "******")
		}
	})

	t.Run("MalformedPatternFallsBackToGeneric", func(t *testing.T) {
		got := e.Mask("secret", TypeCustom, &MaskingOptions{Pattern: `([`})
		if got != "******" {
			t.Errorf("got %q, want %q", got, "******")
		}
	})
}

func TestMaskGeneric(t *testing.T) {
	e := newTestEngine()

	t.Run("PreservesLengthByDefault", func(t *testing.T) {
		if got := e.Mask("01/02/1990", TypeDOB, nil); got != "**********" {
			t.Errorf("got %q, want %q", got, "**********")
		}
	})

	t.Run("CapLengthCapsAtEight", func(t *testing.T) {
		got := e.Mask("a-very-long-identifier", TypePassport, &MaskingOptions{CapLength: true})
		if got != "********" {
			t.Errorf("got %q, want %q", got, "********")
		}
	})

	t.Run("CustomMaskChar", func(t *testing.T) {
		if got := e.Mask("abcd", TypePassport, &MaskingOptions{MaskChar: "#"}); got != "####" {
			t.Errorf("got %q, want %q", got, "####")
		}
	})

	t.Run("PartialOptionsStayLengthPreserving", func(t *testing.T) {
		// Naming only the mask char must not disturb the other defaults.
		got := e.Mask("a-very-long-identifier", TypePassport, &MaskingOptions{MaskChar: "#"})
		want := strings.Repeat("#", len("a-very-long-identifier"))
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

func TestMaskFormatPreservation(t *testing.T) {
	t.Run("DropSeparatorsEmitsDigitsOnly", func(t *testing.T) {
		e := newTestEngine()
		got := e.Mask("123-45-6789", TypeSSN, &MaskingOptions{DropSeparators: true})
		if got != "*****6789" {
			t.Errorf("got %q, want %q", got, "*****6789")
		}
	})

	t.Run("InstanceConfigDropsSeparators", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.PreserveFormat = false
		e := New(cfg, nil, zap.NewNop())
		if got := e.Mask("555-123-4567", TypePhone, nil); got != "******4567" {
			t.Errorf("got %q, want %q", got, "******4567")
		}
	})

	t.Run("SeparatorsKeptByDefault", func(t *testing.T) {
		e := newTestEngine()
		if got := e.Mask("4532-0151-1283-0366", TypeCreditCard, &MaskingOptions{MaskChar: "#"}); got != "####-####-####-0366" {
			t.Errorf("got %q, want %q", got, "####-####-####-0366")
		}
	})
}

func TestMaskPassthrough(t *testing.T) {
	t.Run("DisabledMaskingReturnsInput", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EnableMasking = false
		e := New(cfg, nil, zap.NewNop())
		if got := e.Mask("123-45-6789", TypeSSN, nil); got != "123-45-6789" {
			t.Errorf("disabled masking should pass through, got %q", got)
		}
	})

	t.Run("EmptyInputReturnsInput", func(t *testing.T) {
		e := newTestEngine()
		if got := e.Mask("", TypeEmail, nil); got != "" {
			t.Errorf("empty input should pass through, got %q", got)
		}
	})
}

func TestMaskBatch(t *testing.T) {
	e := newTestEngine()

	items := []BatchMaskItem{
		{Value: "user@example.com", Type: TypeEmail},
		{Value: "123-45-6789", Type: TypeSSN},
		{Value: "John Smith", Type: TypeName},
	}
	got := e.MaskBatch(items)
	want := []string{"u***r@example.com", "***-**-6789", "J*** S****"}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

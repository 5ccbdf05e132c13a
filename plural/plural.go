// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package plural maps quantities to the numerus form index used by Qt Linguist
catalogs.

Qt stores numerus forms positionally, in an order fixed per language. Each
[Rule] pairs that order with the CLDR cardinal categories from
golang.org/x/text/feature/plural, so that the category CLDR picks for a
quantity can be turned into a position in a <translation> element.

Where CLDR and Qt split quantities differently, as for Romanian 101 or
Latvian 10, the rule carries Qt's own index function and the CLDR categories
only name the forms.

Languages without an entry in the table use the English rule: form 0 for
exactly one, form 1 otherwise.
*/
package plural

import (
	"strings"

	cldr "golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

// Rule is the plural rule of a single language.
//
// The zero value is the English rule.
type Rule struct {
	tag   language.Tag
	forms []cldr.Form // Qt form order; nil means the English rule
	expr  string      // gettext Plural-Forms header value
	index func(n int) int
}

type entry struct {
	forms []cldr.Form
	expr  string
	index func(n int) int // overrides the CLDR mapping when set
}

const englishExpr = "nplurals=2; plural=(n != 1);"

var (
	formsSlovenian = []cldr.Form{cldr.One, cldr.Two, cldr.Few, cldr.Other}
	formsEastSlav  = []cldr.Form{cldr.One, cldr.Few, cldr.Many}
	formsSouthSlav = []cldr.Form{cldr.One, cldr.Few, cldr.Other}
	formsWestSlav  = []cldr.Form{cldr.One, cldr.Few, cldr.Other}
	formsPolish    = []cldr.Form{cldr.One, cldr.Few, cldr.Many}
	formsArabic    = []cldr.Form{cldr.Zero, cldr.One, cldr.Two, cldr.Few, cldr.Many, cldr.Other}
	formsSingle    = []cldr.Form{cldr.Other}
	formsFrench    = []cldr.Form{cldr.One, cldr.Other}
	formsIrish     = []cldr.Form{cldr.One, cldr.Two, cldr.Other}
	formsGaelic    = []cldr.Form{cldr.One, cldr.Two, cldr.Few, cldr.Other}
	formsRomanian  = []cldr.Form{cldr.One, cldr.Few, cldr.Other}
	formsLatvian   = []cldr.Form{cldr.One, cldr.Other, cldr.Zero}
	formsMaltese   = []cldr.Form{cldr.One, cldr.Few, cldr.Many, cldr.Other}
	formsWelsh     = []cldr.Form{cldr.Zero, cldr.One, cldr.Few, cldr.Many, cldr.Other}
)

const (
	exprSlovenian = "nplurals=4; plural=(n%100==1 ? 0 : n%100==2 ? 1 : n%100==3 || n%100==4 ? 2 : 3);"
	exprSlavic    = "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);"
	exprWestSlav  = "nplurals=3; plural=(n==1 ? 0 : n>=2 && n<=4 ? 1 : 2);"
	exprPolish    = "nplurals=3; plural=(n==1 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);"
	exprLithuan   = "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && (n%100<10 || n%100>=20) ? 1 : 2);"
	exprArabic    = "nplurals=6; plural=(n==0 ? 0 : n==1 ? 1 : n==2 ? 2 : n%100>=3 && n%100<=10 ? 3 : n%100>=11 ? 4 : 5);"
	exprSingle    = "nplurals=1; plural=0;"
	exprFrench    = "nplurals=2; plural=(n > 1);"
	exprIrish     = "nplurals=3; plural=(n==1 ? 0 : n==2 ? 1 : 2);"
	exprGaelic    = "nplurals=4; plural=(n==1 || n==11 ? 0 : n==2 || n==12 ? 1 : n>2 && n<20 ? 2 : 3);"
	exprRomanian  = "nplurals=3; plural=(n==1 ? 0 : n==0 || (n%100>0 && n%100<20) ? 1 : 2);"
	exprLatvian   = "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n!=0 ? 1 : 2);"
	exprMacedon   = "nplurals=3; plural=(n%10==1 ? 0 : n%10==2 ? 1 : 2);"
	exprMaltese   = "nplurals=4; plural=(n==1 ? 0 : n==0 || (n%100>0 && n%100<11) ? 1 : n%100>10 && n%100<20 ? 2 : 3);"
	exprWelsh     = "nplurals=5; plural=(n==0 ? 0 : n==1 ? 1 : n>=2 && n<=5 ? 2 : n==6 ? 3 : 4);"
	exprIcelandic = "nplurals=2; plural=(n%10==1 && n%100!=11 ? 0 : 1);"
)

func irishIndex(n int) int {
	switch n {
	case 1:
		return 0
	case 2:
		return 1
	default:
		return 2
	}
}

func gaelicIndex(n int) int {
	switch {
	case n == 1 || n == 11:
		return 0
	case n == 2 || n == 12:
		return 1
	case n > 2 && n < 20:
		return 2
	default:
		return 3
	}
}

func romanianIndex(n int) int {
	switch {
	case n == 1:
		return 0
	case n == 0 || (n%100 > 0 && n%100 < 20):
		return 1
	default:
		return 2
	}
}

func latvianIndex(n int) int {
	switch {
	case n%10 == 1 && n%100 != 11:
		return 0
	case n != 0:
		return 1
	default:
		return 2
	}
}

func macedonianIndex(n int) int {
	switch n % 10 {
	case 1:
		return 0
	case 2:
		return 1
	default:
		return 2
	}
}

func malteseIndex(n int) int {
	switch {
	case n == 1:
		return 0
	case n == 0 || (n%100 > 0 && n%100 < 11):
		return 1
	case n%100 > 10 && n%100 < 20:
		return 2
	default:
		return 3
	}
}

func welshIndex(n int) int {
	switch {
	case n <= 1:
		return n
	case n <= 5:
		return 2
	case n == 6:
		return 3
	default:
		return 4
	}
}

func icelandicIndex(n int) int {
	if n%10 == 1 && n%100 != 11 {
		return 0
	}

	return 1
}

// table is keyed by base language.
var table = map[string]entry{
	"sl": {formsSlovenian, exprSlovenian, nil},

	"ru": {formsEastSlav, exprSlavic, nil},
	"uk": {formsEastSlav, exprSlavic, nil},
	"be": {formsEastSlav, exprSlavic, nil},

	"hr": {formsSouthSlav, exprSlavic, nil},
	"sr": {formsSouthSlav, exprSlavic, nil},
	"bs": {formsSouthSlav, exprSlavic, nil},

	"cs": {formsWestSlav, exprWestSlav, nil},
	"sk": {formsWestSlav, exprWestSlav, nil},

	"pl": {formsPolish, exprPolish, nil},
	"lt": {formsWestSlav, exprLithuan, nil},
	"ar": {formsArabic, exprArabic, nil},
	"fr": {formsFrench, exprFrench, nil},

	"ga": {formsIrish, exprIrish, irishIndex},
	"gd": {formsGaelic, exprGaelic, gaelicIndex},
	"ro": {formsRomanian, exprRomanian, romanianIndex},
	"lv": {formsLatvian, exprLatvian, latvianIndex},
	"mk": {formsIrish, exprMacedon, macedonianIndex},
	"mt": {formsMaltese, exprMaltese, malteseIndex},
	"cy": {formsWelsh, exprWelsh, welshIndex},
	"is": {formsFrench, exprIcelandic, icelandicIndex},

	"ja": {formsSingle, exprSingle, nil},
	"zh": {formsSingle, exprSingle, nil},
	"ko": {formsSingle, exprSingle, nil},
	"vi": {formsSingle, exprSingle, nil},
	"th": {formsSingle, exprSingle, nil},
	"id": {formsSingle, exprSingle, nil},
	"ms": {formsSingle, exprSingle, nil},
}

// ForLanguage returns the rule for a locale such as "sl_SI", "sl-SI" or "sl".
//
// Unknown or malformed locales get the English rule.
func ForLanguage(locale string) Rule {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return Rule{tag: language.Und}
	}

	return ForTag(tag)
}

// ForTag returns the rule for tag.
func ForTag(tag language.Tag) Rule {
	base, _ := tag.Base()

	e, ok := table[base.String()]
	if !ok {
		return Rule{tag: tag}
	}

	// CLDR rules are per base language; regional tags add nothing.
	return Rule{tag: language.Make(base.String()), forms: e.forms, expr: e.expr, index: e.index}
}

// Count returns how many numerus forms a translation in this language carries.
func (r Rule) Count() int {
	if r.forms == nil {
		return 2
	}

	return len(r.forms)
}

// Index returns the form index for quantity n. Negative quantities use their
// absolute value.
func (r Rule) Index(n int) int {
	if n < 0 {
		n = -n
	}

	if r.forms == nil {
		if n == 1 {
			return 0
		}

		return 1
	}

	if r.index != nil {
		return r.index(n)
	}

	form := cldr.Cardinal.MatchPlural(r.tag, n, 0, 0, 0, 0)
	for i, f := range r.forms {
		if f == form {
			return i
		}
	}

	// CLDR categories outside the Qt order collapse onto the catch-all form.
	return len(r.forms) - 1
}

// Categories returns the CLDR category names in form order.
func (r Rule) Categories() []string {
	if r.forms == nil {
		return []string{"one", "other"}
	}

	names := make([]string, len(r.forms))
	for i, f := range r.forms {
		names[i] = formName(f)
	}

	return names
}

// GettextExpr returns the Plural-Forms header value equivalent to Index.
func (r Rule) GettextExpr() string {
	if r.expr == "" {
		return englishExpr
	}

	return r.expr
}

func formName(f cldr.Form) string {
	switch f {
	case cldr.Zero:
		return "zero"
	case cldr.One:
		return "one"
	case cldr.Two:
		return "two"
	case cldr.Few:
		return "few"
	case cldr.Many:
		return "many"
	default:
		return "other"
	}
}

package extraction

import (
	"strconv"
	"strings"
)

// valueMatcher inspects a trimmed value and claims it when it recognizes
// the shape.
type valueMatcher func(value string) (TypedValue, bool)

// valueCascade is the ordered type inference chain. Order matters: a value
// such as "12/01/2024" is a date before it could ever be anything else, and
// "$1,000" is currency rather than text.
var valueCascade = []valueMatcher{
	matchCurrency,
	matchDate,
	matchBoolean,
	matchNumber,
}

// InferValue runs the cascade and falls back to plain text
func InferValue(value string) TypedValue {
	value = strings.TrimSpace(value)
	for _, match := range valueCascade {
		if v, ok := match(value); ok {
			return v
		}
	}
	return Text(value)
}

func matchCurrency(value string) (TypedValue, bool) {
	prefix := currencyPrefix.FindString(value)
	if prefix == "" {
		return TypedValue{}, false
	}
	amount, err := strconv.ParseFloat(nonAmount.ReplaceAllString(prefix, ""), 64)
	if err != nil {
		return TypedValue{}, false
	}
	return Currency(amount, value), true
}

func matchDate(value string) (TypedValue, bool) {
	for _, re := range datePrefixes {
		prefix := re.FindString(value)
		if prefix == "" {
			continue
		}
		v := TypedValue{Kind: KindDate, Raw: value}
		if normalized, ok := NormalizeDate(prefix); ok {
			v.Date = normalized
		}
		return v, true
	}
	return TypedValue{}, false
}

func matchBoolean(value string) (TypedValue, bool) {
	b, ok := booleanTokens[strings.ToLower(value)]
	if !ok {
		return TypedValue{}, false
	}
	return TypedValue{Kind: KindBoolean, Bool: b, Raw: value}, true
}

func matchNumber(value string) (TypedValue, bool) {
	plain := strings.ReplaceAll(value, ",", "")
	switch {
	case integerValue.MatchString(plain):
		if i, err := strconv.ParseInt(plain, 10, 64); err == nil {
			return Integer(i), true
		}
		if f, err := strconv.ParseFloat(plain, 64); err == nil {
			return Number(f), true
		}
	case floatValue.MatchString(plain):
		if f, err := strconv.ParseFloat(plain, 64); err == nil {
			return Number(f), true
		}
	}
	return TypedValue{}, false
}

package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/juparave/gapaudit/internal/config"
	"github.com/juparave/gapaudit/internal/domain"
	"github.com/sirupsen/logrus"
)

// Canonical field names every alias resolves to
const (
	FieldArea           = "area"
	FieldDescription    = "description"
	FieldSeverity       = "severity"
	FieldRecommendedFix = "recommended_fix"
)

// DefaultAliases maps each canonical field to the keys accepted from the
// model, in lookup order.
var DefaultAliases = map[string][]string{
	FieldArea:           {"area", "title"},
	FieldDescription:    {"description", "finding"},
	FieldSeverity:       {"severity"},
	FieldRecommendedFix: {"dial_fix", "fix", "recommended_fix", "recommendedFix"},
}

var canonicalOrder = []string{FieldArea, FieldDescription, FieldSeverity, FieldRecommendedFix}

// Result is the outcome of parsing one model response
type Result struct {
	Findings []domain.Finding
	Warnings []domain.SchemaViolation // elements dropped in lenient mode
	Raw      string
}

// Parser turns raw model text into validated findings
type Parser struct {
	strict      bool
	enforceMax  bool
	maxFindings int
	aliases     map[string][]string
	logger      *logrus.Logger
}

// NewParser creates a Parser. Configured aliases extend the defaults.
func NewParser(cfg config.ExtractionConfig, maxFindings int, logger *logrus.Logger) *Parser {
	aliases := make(map[string][]string, len(DefaultAliases))
	for k, v := range DefaultAliases {
		aliases[k] = append([]string(nil), v...)
	}
	for k, v := range cfg.Aliases {
		aliases[k] = appendUnique(aliases[k], v...)
	}

	return &Parser{
		strict:      cfg.Strictness == "strict",
		enforceMax:  cfg.EnforceMaxFindings,
		maxFindings: maxFindings,
		aliases:     aliases,
		logger:      logger,
	}
}

// Parse sanitizes, decodes, canonicalizes and validates a response.
// Errors carry the original uncleaned text.
func (p *Parser) Parse(raw string) (Result, error) {
	res := Result{Raw: raw}

	cleaned, err := Sanitize(raw)
	if err != nil {
		return res, parseError("no JSON in response", raw, err)
	}

	top, err := p.decode(cleaned)
	if err != nil {
		return res, parseError("invalid JSON", raw, err)
	}

	elements, err := topLevelList(top)
	if err != nil {
		return res, parseError("unexpected response shape", raw, err)
	}

	for i, el := range elements {
		f, v := p.finding(i, el)
		if v != nil {
			if p.strict {
				return Result{Raw: raw}, domain.ViolationError(*v, raw)
			}
			p.logger.WithField("violation", v.String()).Warn("Dropping invalid finding")
			res.Warnings = append(res.Warnings, *v)
			continue
		}
		res.Findings = append(res.Findings, f)
	}

	if p.enforceMax && p.maxFindings > 0 && len(res.Findings) > p.maxFindings {
		p.logger.WithFields(logrus.Fields{"returned": len(res.Findings), "max": p.maxFindings}).Info("Truncating findings")
		res.Findings = res.Findings[:p.maxFindings]
	}

	return res, nil
}

func (p *Parser) decode(text string) (any, error) {
	var v any
	err := json.Unmarshal([]byte(text), &v)
	if err == nil || p.strict {
		return v, err
	}

	// Repair only counts when it recovers at least one finding object;
	// prose wrapped into an array is still invalid JSON.
	if repaired, rerr := jsonrepair.RepairJSON(text); rerr == nil {
		var rv any
		if json.Unmarshal([]byte(repaired), &rv) == nil && hasObject(rv) {
			p.logger.Debug("Decoded response after JSON repair")
			return rv, nil
		}
	}

	var hv any
	if herr := hjson.Unmarshal([]byte(text), &hv); herr == nil && hasObject(hv) {
		p.logger.Debug("Decoded response as Hjson")
		return hv, nil
	}

	return nil, err
}

func hasObject(v any) bool {
	list, err := topLevelList(v)
	if err != nil {
		return false
	}
	for _, el := range list {
		if _, ok := el.(map[string]any); ok {
			return true
		}
	}
	return false
}

func topLevelList(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case map[string]any:
		if list, ok := t["findings"].([]any); ok {
			return list, nil
		}
		return nil, errors.New("top-level object has no findings array")
	default:
		return nil, fmt.Errorf("top-level value is %T, want array", v)
	}
}

// finding canonicalizes and validates one element
func (p *Parser) finding(i int, el any) (domain.Finding, *domain.SchemaViolation) {
	obj, ok := el.(map[string]any)
	if !ok {
		return domain.Finding{}, &domain.SchemaViolation{Index: i, Field: "element", Cause: fmt.Sprintf("%T is not an object", el)}
	}

	canon := make(map[string]any, len(canonicalOrder))
	for _, field := range canonicalOrder {
		for _, key := range p.aliases[field] {
			if v, ok := obj[key]; ok && v != nil {
				canon[field] = v
				break
			}
		}
	}

	for _, field := range []string{FieldArea, FieldDescription, FieldRecommendedFix} {
		if _, ok := canon[field]; !ok {
			return domain.Finding{}, &domain.SchemaViolation{Index: i, Field: field, Cause: "missing required field"}
		}
	}

	if v := validateShape(i, canon); v != nil {
		return domain.Finding{}, v
	}

	rawFix := canon[FieldRecommendedFix].(string)
	fix, ok := domain.ParseDialFix(rawFix)
	if !ok {
		return domain.Finding{}, &domain.SchemaViolation{Index: i, Field: FieldRecommendedFix, Value: rawFix, Cause: "not one of the permitted dial fixes"}
	}

	f := domain.Finding{
		Area:           strings.TrimSpace(canon[FieldArea].(string)),
		Description:    strings.TrimSpace(canon[FieldDescription].(string)),
		RecommendedFix: fix,
	}

	if s, ok := canon[FieldSeverity].(string); ok && s != "" {
		if sev, ok := domain.ParseSeverity(s); ok {
			f.Severity = &sev
		} else {
			p.logger.WithFields(logrus.Fields{"index": i, "severity": s}).Debug("Ignoring unknown severity")
		}
	}

	return f, nil
}

func parseError(msg, raw string, cause error) *domain.Error {
	return &domain.Error{Kind: domain.KindExtractionParse, Message: msg, Raw: raw, Cause: cause}
}

func appendUnique(list []string, items ...string) []string {
	for _, it := range items {
		found := false
		for _, x := range list {
			if x == it {
				found = true
				break
			}
		}
		if !found {
			list = append(list, it)
		}
	}
	return list
}

package source

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// maxFieldDepth bounds recursion through field Kids
const maxFieldDepth = 8

// FormField is one AcroForm field and its current value
type FormField struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ReadFormFields reads the AcroForm fields of a PDF. Hierarchical names are
// joined with dots; checkbox and radio values are reported as Yes or No.
func ReadFormFields(path string) ([]FormField, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, nil
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return nil, nil
	}
	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil, nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	var out []FormField
	for _, obj := range fieldsArray {
		collectField(ctx, obj, "", "", 0, &out)
	}
	return out, nil
}

func collectField(ctx *model.Context, obj types.Object, parent, inheritedType string, depth int, out *[]FormField) {
	if depth > maxFieldDepth {
		return
	}
	dict, err := ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		return
	}

	name := parent
	if nameObj, found := dict.Find("T"); found {
		if partial, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil && partial != "" {
			if name != "" {
				name += "."
			}
			name += partial
		}
	}

	fieldType := inheritedType
	if ftObj, found := dict.Find("FT"); found {
		if ft, err := ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
			fieldType = string(ft)
		}
	}

	// terminal fields hold V; kids without T are widget annotations
	if kidsObj, found := dict.Find("Kids"); found {
		if kids, err := ctx.DereferenceArray(kidsObj); err == nil {
			var named bool
			for _, kid := range kids {
				if kd, err := ctx.DereferenceDict(kid); err == nil && kd != nil {
					if _, hasT := kd.Find("T"); hasT {
						named = true
						collectField(ctx, kid, name, fieldType, depth+1, out)
					}
				}
			}
			if named {
				return
			}
		}
	}

	if name == "" {
		return
	}
	field := FormField{Name: name, Type: fieldType}
	if valueObj, found := dict.Find("V"); found {
		field.Value = fieldValue(ctx, valueObj, fieldType)
	}
	*out = append(*out, field)
}

func fieldValue(ctx *model.Context, obj types.Object, fieldType string) string {
	if name, err := ctx.DereferenceName(obj, model.V10, nil); err == nil {
		if fieldType == "Btn" {
			if name == "Off" || name == "" {
				return "No"
			}
			return "Yes"
		}
		return string(name)
	}
	if s, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
		return strings.TrimSpace(s)
	}
	if arr, err := ctx.DereferenceArray(obj); err == nil {
		var parts []string
		for _, item := range arr {
			if s := fieldValue(ctx, item, fieldType); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

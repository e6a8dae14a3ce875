package controller

import "strconv"

// Keys a portal template may use for the same field. The first present key
// wins. Document pages send journalId and the correctly spelled error key;
// older pages send subjectId and the misspelled one.
var (
	subjectKeys      = []string{"subjectId", "journalId"}
	initialErrorKeys = []string{"initialDescriptionError", "initialDescritionError"}
)

// ContextFromPage builds a Context from the object a portal template passes
// to its link function. Values of an unexpected type read as zero.
func ContextFromPage(fields map[string]any) Context {
	return Context{
		SubjectID:             pageString(fields, subjectKeys...),
		UpdateURLComponent:    pageString(fields, "updateUrlComponent"),
		VerifyURLComponent:    pageString(fields, "verifyUrlComponent"),
		DescriptionControlID:  pageString(fields, "descriptionControlId"),
		DownloadControlID:     pageString(fields, "downloadControlId"),
		HasInitialError:       pageBool(fields, "hasInitialDescriptionError"),
		InitialError:          pageString(fields, initialErrorKeys...),
		InitialIsUploadNeeded: pageBool(fields, "initialIsUploadNeeded"),
	}
}

func pageString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := fields[k].(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func pageBool(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

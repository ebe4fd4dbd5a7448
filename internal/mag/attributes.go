// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mag

// DefaultAttributes is the attribute-code list requested when the caller
// does not specify one. See the Project Academic Knowledge entity
// attribute reference for the full vocabulary.
const DefaultAttributes = "DN,Ti,W,AW,IA,AA.AuId,AA.DAuN,Y,D,DOI,J.JN,PB,F.FId,F.FN"

// fosAttributes is the attribute-code list used for field-of-study
// enrichment lookups.
const fosAttributes = "Id,ECC,FL,FN,FC.FId,FC.FN,FP.FId,FP.FN"

// ColumnNames maps API attribute codes to the human-readable column names
// used in the tabular export. Codes absent from the map keep their short
// form. The mapping is fixed for output compatibility.
var ColumnNames = map[string]string{
	"Id":   "mag_ID",
	"DN":   "original_paper_title",
	"Ti":   "normalized_title",
	"W":    "normalized_words_in_title",
	"AW":   "normalized_words_in_abstract",
	"RA":   "restored_abstract",
	"IA":   "inverted_abstract",
	"AA":   "authors",
	"AuId": "author_id",
	"DAuN": "author_name",
	"Y":    "year_published",
	"D":    "isodate_published",
	"DOI":  "DOI",
	"J":    "journals",
	"JN":   "journal_name",
	"PB":   "publisher",
	"FId":  "field_of_study_id",
	"FN":   "field_of_study",
}

// droppedColumns are API-internal scoring fields removed from the tabular
// projection. They stay in the raw JSON channel.
var droppedColumns = map[string]bool{
	"prob":    true,
	"logprob": true,
}

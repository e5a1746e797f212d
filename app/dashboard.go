package app

import (
	"strconv"

	"healthinsights/domain/core"
	"healthinsights/domain/dataset"
	"healthinsights/internal/analysis"
)

// Tab identifies one dashboard tab
type Tab string

const (
	TabOverview     Tab = "overview"
	TabDemographics Tab = "demographics"
	TabFinancial    Tab = "financial"
	TabConditions   Tab = "conditions"
	TabCorrelation  Tab = "correlation"
)

// Tabs lists the dashboard tabs in display order.
var Tabs = []Tab{TabOverview, TabDemographics, TabFinancial, TabConditions, TabCorrelation}

// Title is the tab label shown to users
func (t Tab) Title() string {
	switch t {
	case TabOverview:
		return "Overview"
	case TabDemographics:
		return "Patient Demographics"
	case TabFinancial:
		return "Financial Insights"
	case TabConditions:
		return "Medical Condition Analysis"
	case TabCorrelation:
		return "Correlation Analysis"
	}
	return string(t)
}

// CorrelationColumns are the numeric columns of the correlation heatmap.
var CorrelationColumns = []dataset.Column{
	dataset.ColAge,
	dataset.ColBilling,
	dataset.ColLengthOfStay,
}

// DashboardView is every widget computed for one filter selection.
type DashboardView struct {
	Criteria     dataset.Criteria `json:"criteria"`
	ViewHash     core.Hash        `json:"view_hash"`
	Summary      analysis.Summary `json:"summary"`
	Demographics DemographicsTab  `json:"demographics"`
	Financial    FinancialTab     `json:"financial"`
	Conditions   ConditionsTab    `json:"conditions"`
	Correlation  CorrelationTab   `json:"correlation"`
}

// DemographicsTab holds the gender/condition breakdown and the age
// distribution. The age trend line is drawn from the same series.
type DemographicsTab struct {
	GenderByCondition *analysis.Crosstab    `json:"gender_by_condition"`
	AgeDistribution   []analysis.ValueCount `json:"age_distribution"`
}

// FinancialTab holds billing widgets
type FinancialTab struct {
	BillingDensity    []analysis.Bin       `json:"billing_density"`
	BillingByHospital []analysis.GroupMean `json:"billing_by_hospital"`
}

// ConditionsTab holds condition frequency and stay trend
type ConditionsTab struct {
	ConditionCounts   []analysis.CategoryCount `json:"condition_counts"`
	LengthOfStayTrend []analysis.TimePoint     `json:"length_of_stay_trend"`
}

// CorrelationTab holds the heatmap and the age/billing scatter
type CorrelationTab struct {
	Matrix       *analysis.CorrelationMatrix `json:"matrix"`
	AgeVsBilling []analysis.Series           `json:"age_vs_billing"`
}

// BuildDashboard filters ds by criteria and computes every widget on the
// resulting view.
func BuildDashboard(ds *dataset.Dataset, criteria dataset.Criteria, bins int) (*DashboardView, error) {
	criteria = criteria.Normalize()
	view := ds.Filter(criteria)

	v := &DashboardView{
		Criteria: criteria,
		ViewHash: core.ComputeViewHash(ds.Meta().Fingerprint, criteria.Predicates()),
		Summary:  analysis.Summarize(view),
	}

	var err error
	if v.Demographics.GenderByCondition, err = analysis.CrossTabulate(view, dataset.ColGender, dataset.ColCondition); err != nil {
		return nil, err
	}
	if v.Demographics.AgeDistribution, err = analysis.ValueCounts(view, dataset.ColAge); err != nil {
		return nil, err
	}
	if v.Financial.BillingDensity, err = analysis.Histogram(view, dataset.ColBilling, bins); err != nil {
		return nil, err
	}
	if v.Financial.BillingByHospital, err = analysis.MeansByGroup(view, dataset.ColHospital, dataset.ColBilling); err != nil {
		return nil, err
	}
	if v.Conditions.ConditionCounts, err = analysis.CountBy(view, dataset.ColCondition); err != nil {
		return nil, err
	}
	if v.Conditions.LengthOfStayTrend, err = analysis.MeanByDate(view, dataset.ColAdmission, dataset.ColLengthOfStay); err != nil {
		return nil, err
	}
	if v.Correlation.Matrix, err = analysis.Correlate(view, CorrelationColumns); err != nil {
		return nil, err
	}
	if v.Correlation.AgeVsBilling, err = analysis.Scatter(view, dataset.ColAge, dataset.ColBilling, dataset.ColGender); err != nil {
		return nil, err
	}
	return v, nil
}

// SummaryRows renders the summary for exports and text output. NaN means
// are shown as "n/a".
func (v *DashboardView) SummaryRows() [][2]string {
	return SummaryRows(v.Summary)
}

// SummaryRows formats a summary as label/value pairs.
func SummaryRows(s analysis.Summary) [][2]string {
	return [][2]string{
		{"Total entries", strconv.Itoa(s.Count)},
		{"Average length of stay (days)", s.MeanLengthOfStay.Format(2)},
		{"Average billing amount", s.MeanBillingAmount.Format(2)},
	}
}

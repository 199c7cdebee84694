package fallback

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"call-insights-go/internal/roles"
	"call-insights-go/internal/types"
)

func inputFor(utts ...types.Utterance) Input {
	t := types.Transcript{Utterances: utts}
	m := roles.Classify(utts)
	return NewInput(t, m, roles.InferDomain(t.Text, utts))
}

func scenarioA() Input {
	return inputFor(
		types.Utterance{Speaker: "A", Text: "Thank you for calling, how can I help?", StartMs: 0, EndMs: 2000},
		types.Utterance{Speaker: "B", Text: "I want to cancel my membership, the service was terrible.", StartMs: 2100, EndMs: 5000},
	)
}

func scenarioB() Input {
	return inputFor(
		types.Utterance{Speaker: "A", Text: "Thank you for calling customer service, my name is Dana.", StartMs: 0, EndMs: 2000},
		types.Utterance{Speaker: "B", Text: "I was charged twice and it's the wrong amount, I want a refund", StartMs: 2100, EndMs: 5000},
	)
}

func TestSummaryScenarioA(t *testing.T) {
	t.Parallel()
	in := scenarioA()
	got := Summary(in)
	want := "Customer called to cancel their membership due to poor service quality and dissatisfaction."
	if got != want {
		t.Fatalf("Summary=%q want %q", got, want)
	}
	if rule := SummaryRule(in); rule != "cancellation" {
		t.Fatalf("SummaryRule=%q want cancellation", rule)
	}
	if items := ActionItems(in); !reflect.DeepEqual(items, []string{types.NoActionItems}) {
		t.Fatalf("ActionItems=%v want sentinel", items)
	}
}

func TestScenarioB(t *testing.T) {
	t.Parallel()
	in := scenarioB()
	if got, want := Summary(in), "Customer called to report incorrect billing or overcharging issues."; got != want {
		t.Fatalf("Summary=%q want %q", got, want)
	}
	bi := BusinessIntelligence(in)
	found := false
	for _, a := range bi.AreasOfImprovement {
		if a == "Improve billing accuracy" {
			found = true
		}
	}
	if !found {
		t.Fatalf("areasOfImprovement=%v missing billing accuracy", bi.AreasOfImprovement)
	}
	for _, a := range bi.AreasOfImprovement {
		if a == "Improve order accuracy and fulfillment" {
			t.Fatalf("wrong-items rule fired on a billing complaint: %v", bi.AreasOfImprovement)
		}
	}
}

func TestEmptyTranscript(t *testing.T) {
	t.Parallel()
	in := NewInput(types.Transcript{Text: "raw words"}, types.SpeakerRoleMap{}, "")
	if got := Summary(in); got != NoContentSummary {
		t.Fatalf("Summary=%q want %q", got, NoContentSummary)
	}
	if got := ActionItems(in); !reflect.DeepEqual(got, []string{types.NoActionItems}) {
		t.Fatalf("ActionItems=%v", got)
	}
	bi := BusinessIntelligence(in)
	if bi.QualityScore.Overall != 50 {
		t.Fatalf("overall=%d want 50", bi.QualityScore.Overall)
	}
	for i, v := range bi.QualityScore.Categories.Values() {
		if v != 50 {
			t.Fatalf("category %d=%d want 50", i, v)
		}
	}
	lists := [][]string{
		bi.AreasOfImprovement, bi.ProcessGaps, bi.TrainingOpportunities, bi.PreventiveMeasures,
		bi.CustomerExperienceInsights, bi.OperationalRecommendations, bi.RiskFactors,
	}
	for i, l := range lists {
		if l == nil || len(l) != 0 {
			t.Fatalf("list %d=%v want empty non-nil", i, l)
		}
	}
}

func TestBusinessIntelligenceScenarioA(t *testing.T) {
	t.Parallel()
	bi := BusinessIntelligence(scenarioA())
	c := bi.QualityScore.Categories
	if c.Empathy != 60 {
		t.Fatalf("empathy=%d want 60 (agent never apologized)", c.Empathy)
	}
	// 80+60+70+80+75 = 365
	if bi.QualityScore.Overall != 73 {
		t.Fatalf("overall=%d want 73", bi.QualityScore.Overall)
	}
	if want := []string{"Customer requested service cancellation"}; !reflect.DeepEqual(bi.CustomerExperienceInsights, want) {
		t.Fatalf("insights=%v want %v", bi.CustomerExperienceInsights, want)
	}
	if want := []string{"Customer churn risk - service cancellation requested"}; !reflect.DeepEqual(bi.RiskFactors, want) {
		t.Fatalf("risks=%v want %v", bi.RiskFactors, want)
	}
	if want := []string{"Improve overall service quality"}; !reflect.DeepEqual(bi.AreasOfImprovement, want) {
		t.Fatalf("areas=%v want %v", bi.AreasOfImprovement, want)
	}
	if want := []string{"Enhance empathetic communication"}; !reflect.DeepEqual(bi.TrainingOpportunities, want) {
		t.Fatalf("training=%v want %v", bi.TrainingOpportunities, want)
	}
}

func TestBusinessIntelligenceDefaults(t *testing.T) {
	t.Parallel()
	in := inputFor(
		types.Utterance{Speaker: "A", Text: "Hello, I'm sorry for the trouble. I will investigate and follow up.", StartMs: 0},
		types.Utterance{Speaker: "B", Text: "Thanks, that works for me.", StartMs: 1000},
	)
	bi := BusinessIntelligence(in)
	c := bi.QualityScore.Categories
	if c.Empathy != 85 || c.FollowUp != 85 || c.ProblemSolving != 80 {
		t.Fatalf("categories=%+v", c)
	}
	if want := []string{"Customer contacted support for assistance"}; !reflect.DeepEqual(bi.CustomerExperienceInsights, want) {
		t.Fatalf("insights=%v", bi.CustomerExperienceInsights)
	}
	want := []string{"Follow-up procedures were mentioned", "Issue investigation process initiated"}
	if !reflect.DeepEqual(bi.OperationalRecommendations, want) {
		t.Fatalf("ops=%v want %v", bi.OperationalRecommendations, want)
	}
	if len(bi.TrainingOpportunities) != 0 {
		t.Fatalf("training=%v want none", bi.TrainingOpportunities)
	}
}

func TestDomainLabelOnlySubstitutes(t *testing.T) {
	t.Parallel()
	utts := []types.Utterance{
		{Speaker: "A", Text: "Thank you for calling.", StartMs: 0},
		{Speaker: "B", Text: "I am frustrated, no one is telling us anything.", StartMs: 500},
	}
	m := roles.Classify(utts)
	tr := types.Transcript{Utterances: utts}
	asCustomer := BusinessIntelligence(NewInput(tr, m, types.Customer))
	asPatient := BusinessIntelligence(NewInput(tr, m, types.Patient))

	if asCustomer.QualityScore != asPatient.QualityScore {
		t.Fatalf("scores differ by domain: %+v vs %+v", asCustomer.QualityScore, asPatient.QualityScore)
	}
	if len(asCustomer.RiskFactors) != len(asPatient.RiskFactors) {
		t.Fatalf("risk counts differ: %v vs %v", asCustomer.RiskFactors, asPatient.RiskFactors)
	}
	if want := "Communication breakdown: patient reported no updates"; asPatient.RiskFactors[1] != want {
		t.Fatalf("risk=%q want %q", asPatient.RiskFactors[1], want)
	}
}

func TestActionItemsCompose(t *testing.T) {
	t.Parallel()
	in := inputFor(
		types.Utterance{Speaker: "A", Text: "I will escalate this to a supervisor and follow up tomorrow.", StartMs: 0},
		types.Utterance{Speaker: "B", Text: "Okay.", StartMs: 1000},
	)
	got := ActionItems(in)
	want := []string{"Follow up with the customer as promised", "Escalate issue to appropriate department"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ActionItems=%v want %v", got, want)
	}
}

func TestActionItemsIgnoreCustomerText(t *testing.T) {
	t.Parallel()
	in := inputFor(
		types.Utterance{Speaker: "A", Text: "Thank you for calling, how can I help?", StartMs: 0},
		types.Utterance{Speaker: "B", Text: "Please escalate and follow up, and investigate it.", StartMs: 1000},
	)
	if got := ActionItems(in); !reflect.DeepEqual(got, []string{types.NoActionItems}) {
		t.Fatalf("ActionItems=%v want sentinel", got)
	}
}

func TestSummaryRulePriority(t *testing.T) {
	t.Parallel()
	cases := []struct {
		text string
		rule string
		want string
	}{
		{"i want to cancel, you sent the wrong item", "cancellation", "Customer called to cancel their membership due to receiving incorrect or wrong items."},
		{"please terminate my plan", "cancellation", "Customer called to cancel their membership or subscription."},
		{"my payment did not go through", "billing", "Customer called regarding billing or payment issues."},
		{"i ordered a pizza and received a salad", "wrong-item", "Customer called to report receiving wrong food order or cold/damaged food items."},
		{"this is the wrong color", "wrong-item", "Customer called to report receiving incorrect or wrong items instead of what was ordered."},
		{"the lamp arrived broken", "damaged-item", "Customer called to report receiving damaged or defective items."},
		{"the app is not working", "technical", "Customer called to report a problem or technical issue with their service or product."},
		{"i need to move my booking", "scheduling", "Customer called to schedule or modify an appointment or booking."},
		{"quick question about hours", "inquiry", "Customer called seeking information or to ask questions about their service."},
		{"about my reservation", "hospitality", "Customer called regarding hotel services, room issues, or reservation problems."},
		{"my account login", "account", "Customer called regarding their membership or account-related issues."},
		{"hello there", "general", "Customer called for general assistance with their service or account."},
	}
	for _, tc := range cases {
		in := Input{CustomerText: tc.text, Domain: types.Customer, HasContent: true}
		if got := SummaryRule(in); got != tc.rule {
			t.Fatalf("SummaryRule(%q)=%q want %q", tc.text, got, tc.rule)
		}
		if got := Summary(in); got != tc.want {
			t.Fatalf("Summary(%q)=%q want %q", tc.text, got, tc.want)
		}
	}
}

func TestSummaryUsesDomainLabel(t *testing.T) {
	t.Parallel()
	in := Input{CustomerText: "i need to reschedule my appointment", Domain: types.Patient, HasContent: true}
	if got, want := Summary(in), "Patient called to schedule or modify an appointment or booking."; got != want {
		t.Fatalf("Summary=%q want %q", got, want)
	}
}

func TestChapterSummary(t *testing.T) {
	t.Parallel()
	cases := []struct {
		headline string
		want     string
		ok       bool
	}{
		{"I'm calling to reschedule an appointment.", "The patient wanted to reschedule an appointment.", true},
		{"The caller wants a refund for a late order", "The patient wanted to wants a refund for a late order.", true},
		{`The guest says "the room was never cleaned and nobody answered the phone"`, "The patient wanted to get assistance.", true},
		{"I would like to discuss the billing situation on the account from last spring in detail", "The patient wanted to billing.", true},
		{"   ", "", false},
	}
	for _, tc := range cases {
		got, ok := ChapterSummary([]types.Chapter{{Headline: tc.headline}}, types.Patient)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ChapterSummary(%q)=(%q,%v) want (%q,%v)", tc.headline, got, ok, tc.want, tc.ok)
		}
	}
	if _, ok := ChapterSummary(nil, types.Guest); ok {
		t.Fatalf("ChapterSummary(nil) reported ok")
	}
}

func TestNormalizeDedupesAndRecomputes(t *testing.T) {
	t.Parallel()
	r := types.BusinessIntelligence{
		AreasOfImprovement: []string{"Improve billing accuracy", " improve billing accuracy ", "Reduce wait times"},
		QualityScore: types.QualityScore{
			Overall:    99,
			Categories: types.QualityCategories{Responsiveness: 90, Empathy: 85, ProblemSolving: 70, Communication: 72, FollowUp: 60},
		},
	}
	Normalize(&r)
	if want := []string{"Improve billing accuracy", "Reduce wait times"}; !reflect.DeepEqual(r.AreasOfImprovement, want) {
		t.Fatalf("areas=%v want %v", r.AreasOfImprovement, want)
	}
	if r.RiskFactors == nil {
		t.Fatalf("nil list not replaced")
	}
	// 377/5 = 75.4
	if r.QualityScore.Overall != 75 {
		t.Fatalf("overall=%d want 75", r.QualityScore.Overall)
	}
}

var phrasePool = []string{
	"cancel", "terrible", "frustrated", "wrong order", "charged twice", "cold pizza", "wait forever",
	"confused", "no updates", "sorry", "follow up", "investigate", "escalate", "document", "hello",
	"my bill", "appointment", "hotel room", "membership", "thanks",
}

func TestOverallAlwaysCategoryMean(t *testing.T) {
	t.Parallel()
	f := gofakeit.New(7)
	for i := 0; i < 300; i++ {
		var agent, caller []string
		for j := f.Number(0, 4); j > 0; j-- {
			agent = append(agent, f.RandomString(phrasePool))
		}
		for j := f.Number(0, 4); j > 0; j-- {
			caller = append(caller, f.RandomString(phrasePool))
		}
		in := inputFor(
			types.Utterance{Speaker: "A", Text: "Thank you for calling. " + strings.Join(agent, " "), StartMs: 0},
			types.Utterance{Speaker: "B", Text: "I need help. " + strings.Join(caller, " "), StartMs: 1000},
		)
		bi := BusinessIntelligence(in)
		var sum float64
		for _, v := range bi.QualityScore.Categories.Values() {
			if v < 0 || v > 100 {
				t.Fatalf("category out of range: %+v", bi.QualityScore.Categories)
			}
			sum += float64(v)
		}
		if want := int(math.Round(sum / 5)); bi.QualityScore.Overall != want {
			t.Fatalf("overall=%d want %d for %+v", bi.QualityScore.Overall, want, bi.QualityScore.Categories)
		}
		if again := BusinessIntelligence(in); !reflect.DeepEqual(bi, again) {
			t.Fatalf("report not deterministic")
		}
		if s := Summary(in); s == "" || s != Summary(in) {
			t.Fatalf("summary not total/idempotent: %q", s)
		}
	}
}

func TestFlagCommunicationBreakdown(t *testing.T) {
	t.Parallel()
	in := inputFor(
		types.Utterance{Speaker: "A", Text: "Thank you for calling the clinic.", StartMs: 0},
		types.Utterance{Speaker: "B", Text: "My husband had surgery and no one is telling us anything.", StartMs: 900},
	)
	ai := types.BusinessIntelligence{
		RiskFactors: []string{"Communication breakdown: patient reported no updates"},
		QualityScore: types.QualityScore{
			Overall:    10,
			Categories: types.QualityCategories{Responsiveness: 70, Empathy: 70, ProblemSolving: 70, Communication: 70, FollowUp: 70},
		},
	}
	if !FlagCommunicationBreakdown(&ai, in) {
		t.Fatalf("breakdown not flagged")
	}
	if len(ai.RiskFactors) != 1 {
		t.Fatalf("risks=%v want one deduplicated entry", ai.RiskFactors)
	}
	if ai.QualityScore.Overall != 70 {
		t.Fatalf("overall=%d want 70", ai.QualityScore.Overall)
	}
	if FlagCommunicationBreakdown(&ai, scenarioA()) {
		t.Fatalf("flagged a call without neglect phrases")
	}
}

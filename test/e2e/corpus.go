// Package e2e provides end-to-end tests over the full service stack with a
// realistic multilingual FAQ corpus and query test cases.
package e2e

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// E2EFaq is one corpus row as it appears in an import file.
type E2EFaq struct {
	Question string
	Answer   string
	Language string
}

// QueryTestCase defines a user query and the question(s) of the FAQ entries
// that must appear among the top matches. FAQ IDs are assigned by storage at
// import time, so expectations are keyed by question text.
type QueryTestCase struct {
	Query             string
	ExpectedQuestions []string
	Description       string
}

// Corpus holds FAQ rows and query test cases for E2E tests.
type Corpus struct {
	Faqs         []E2EFaq
	TestCases    []QueryTestCase
	TotalFaqs    int
	TotalQueries int
}

// BuildCorpus returns a corpus of health FAQs with varied topics across three
// languages and the query test cases that exercise them. Each FAQ carries
// distinctive terms so queries can assert the right entry is matched.
func BuildCorpus() *Corpus {
	faqs := buildFaqs()
	cases := buildQueryTestCases(faqs)
	return &Corpus{
		Faqs:         faqs,
		TestCases:    cases,
		TotalFaqs:    len(faqs),
		TotalQueries: len(cases),
	}
}

func buildFaqs() []E2EFaq {
	en := []E2EFaq{
		{"What are the symptoms of dengue?", "Dengue causes high fever, severe headache, pain behind the eyes, joint pain and a skin rash appearing a few days after the mosquito bite.", "en"},
		{"How can I prevent dengue at home?", "Prevent dengue by removing standing water from coolers, pots and tyres, covering water tanks, and using mosquito repellent and window screens.", "en"},
		{"What are the symptoms of malaria?", "Malaria causes cyclical fever with chills and shivering, sweating, headache and fatigue. A blood smear test confirms the parasite.", "en"},
		{"How is typhoid spread?", "Typhoid spreads through food and water contaminated with the Salmonella typhi bacteria. Safe drinking water and hand washing prevent it.", "en"},
		{"What are the early signs of tuberculosis?", "Tuberculosis begins with a persistent cough lasting more than two weeks, evening fever, night sweats and unexplained weight loss.", "en"},
		{"How do I manage type 2 diabetes with diet?", "Manage diabetes by limiting sugar and refined carbohydrates, eating whole grains and vegetables, and keeping regular meal times with portion control.", "en"},
		{"What is a normal blood pressure reading?", "A normal blood pressure reading is around 120 over 80. Readings consistently above 140 over 90 indicate hypertension and need medical review.", "en"},
		{"How do I use an asthma inhaler correctly?", "Shake the inhaler, breathe out fully, seal your lips around the mouthpiece, press the canister while inhaling slowly, and hold your breath for ten seconds.", "en"},
		{"What foods help with iron deficiency anemia?", "Iron rich foods include green leafy vegetables, jaggery, dates, beans and meat. Vitamin C from citrus fruits improves iron absorption.", "en"},
		{"What causes jaundice and how is it treated?", "Jaundice is yellowing of the skin and eyes caused by raised bilirubin, often from hepatitis or liver disease. Treatment targets the underlying cause with rest and fluids.", "en"},
		{"Is chickenpox contagious and for how long?", "Chickenpox is highly contagious from two days before the rash appears until every blister has crusted over, usually about a week.", "en"},
		{"What should I do after a dog bite?", "Wash the dog bite wound with soap and running water for fifteen minutes, apply an antiseptic, and get the anti rabies vaccine the same day.", "en"},
		{"What is the first aid for a snake bite?", "Keep the person calm and still, immobilize the bitten limb below heart level, remove rings and tight clothing, and reach a hospital with antivenom quickly. Do not cut or suck the wound.", "en"},
		{"How do I treat a minor burn at home?", "Cool the burn under running water for twenty minutes, cover it with a clean non sticky dressing, and avoid ice, butter or toothpaste on the skin.", "en"},
		{"How do I perform CPR on an adult?", "Place your hands in the center of the chest and give compressions at least five centimeters deep at a rate of one hundred to one hundred twenty per minute.", "en"},
		{"How do I prepare ORS for diarrhea?", "Dissolve one full ORS packet in one liter of clean boiled and cooled water. Give small sips frequently to replace fluids lost in diarrhea.", "en"},
		{"What is the vaccination schedule for infants?", "Infants receive BCG, hepatitis B and oral polio at birth, followed by pentavalent doses at six, ten and fourteen weeks, and measles rubella at nine months.", "en"},
		{"What should a pregnant woman eat?", "A pregnant woman needs iron and folic acid tablets, milk, eggs, pulses, green vegetables and fruits, with small frequent meals through the day.", "en"},
		{"How long should exclusive breastfeeding continue?", "Exclusive breastfeeding should continue for the first six months, with no water or other foods, before complementary feeding begins.", "en"},
		{"How do I care for a newborn umbilical cord?", "Keep the umbilical cord stump clean and dry, fold the diaper below it, and never apply ash, oil or powder on the stump.", "en"},
		{"Why are polio drops given to children?", "Polio drops protect children from the poliovirus that causes permanent paralysis. Every child under five must receive drops during immunization rounds.", "en"},
		{"What are the symptoms of vitamin D deficiency?", "Vitamin D deficiency causes bone pain, muscle weakness and fatigue. Sunlight exposure and fortified foods restore levels.", "en"},
		{"How is a thyroid problem detected?", "A thyroid problem is detected with a TSH blood test. Weight change, hair fall, and feeling unusually cold or hot are common complaints.", "en"},
		{"What triggers a migraine headache?", "Migraine attacks are triggered by skipped meals, poor sleep, bright light, loud noise and stress. A dark quiet room helps during an attack.", "en"},
		{"How do I treat conjunctivitis or pink eye?", "Conjunctivitis usually clears in a week. Clean the eyelids with boiled cooled water, avoid rubbing the eyes, and wash hands often since pink eye spreads by touch.", "en"},
		{"What helps an ear infection in children?", "An ear infection needs a doctor when pain lasts beyond a day or fluid drains from the ear. Warm compress relieves pain; never insert oil or sticks.", "en"},
		{"How often should children be dewormed?", "Children should take deworming tablets like albendazole every six months to clear intestinal worm infection that causes anemia and poor growth.", "en"},
		{"How is scabies treated?", "Scabies is treated with permethrin cream applied over the whole body overnight. All family members need treatment at the same time, with clothing and bedding washed hot.", "en"},
		{"What is the fastest way to treat heat stroke?", "Move the person with heat stroke to shade, remove extra clothing, sponge the body with cool water, fan them, and give sips of water if conscious.", "en"},
		{"What should I do in case of food poisoning?", "In food poisoning take ORS and plenty of fluids, eat bland food like khichdi and bananas, and see a doctor if vomiting persists or blood appears in stool.", "en"},
		{"How does hepatitis B spread?", "Hepatitis B spreads through infected blood, unsterile needles, unprotected sex and from mother to baby at birth. A safe vaccine prevents it.", "en"},
		{"Can HIV spread through casual contact?", "HIV does not spread through handshakes, hugging, sharing food or mosquito bites. It spreads through infected blood, unprotected sex and mother to child transmission.", "en"},
		{"What are the warning signs of pneumonia in a child?", "Pneumonia in a child shows as fast breathing, chest indrawing, fever and refusal to feed. These danger signs need a health facility immediately.", "en"},
		{"What is the difference between a cold and influenza?", "A common cold builds slowly with a runny nose and sneezing, while influenza starts suddenly with high fever, body ache and exhaustion.", "en"},
		{"What exercises are safe for arthritis patients?", "Arthritis patients benefit from gentle walking, swimming and range of motion stretches. Avoid deep squats and heavy lifting during joint flare ups.", "en"},
		{"How can I prevent kidney stones?", "Prevent kidney stones by drinking two to three liters of water daily, cutting salt, and limiting spinach, nuts and red meat if advised.", "en"},
		{"What are the symptoms of a urinary tract infection?", "A urinary tract infection causes burning while passing urine, frequent urges with little urine, and lower abdominal pain. Drink water and see a doctor for antibiotics.", "en"},
		{"What relieves acidity and heartburn?", "Acidity and heartburn improve with smaller meals, avoiding late night eating, cutting spicy and fried food, and raising the head end of the bed.", "en"},
		{"How do I get relief from constipation naturally?", "Relieve constipation with fiber from whole grains, fruits and vegetables, plenty of warm water, and a regular toilet routine every morning.", "en"},
		{"How can I lower my cholesterol without medicine?", "Lower cholesterol by replacing fried snacks with nuts and fruits, using less oil, eating oats and beans, and walking briskly for thirty minutes daily.", "en"},
		{"What are the warning signs of a stroke?", "Remember FAST for stroke: face drooping, arm weakness, speech difficulty, time to rush to hospital. Quick treatment saves brain function.", "en"},
		{"How do I recognize a heart attack?", "A heart attack causes crushing chest pain spreading to the left arm or jaw, sweating, breathlessness and nausea. Chew an aspirin and call emergency services.", "en"},
		{"What first aid should be given during a seizure?", "During a seizure turn the person on their side, cushion the head, remove sharp objects nearby, and never put anything in the mouth. Time the episode.", "en"},
		{"How can I tell if a rash is an allergy?", "An allergy rash is itchy, raised and appears soon after a new food, medicine or insect sting. Swelling of lips or throat needs emergency care.", "en"},
		{"What are the symptoms of chikungunya?", "Chikungunya causes sudden fever with severe joint pain in the hands, wrists and ankles that can last for weeks, along with rash and fatigue.", "en"},
		{"How does leptospirosis spread during floods?", "Leptospirosis spreads when cuts on the skin touch flood water contaminated with rat urine. Wear boots in standing water and wash wounds at once.", "en"},
		{"What is the correct way to wash hands?", "Wash hands with soap and water for at least twenty seconds covering palms, backs, between fingers and under nails, especially before eating and after the toilet.", "en"},
		{"How can I purify drinking water at home?", "Purify drinking water by boiling it for one minute at a rolling boil, or use chlorine tablets or a certified filter. Store it in a clean covered vessel.", "en"},
		{"Where do mosquitoes breed in a household?", "Mosquitoes breed in stagnant water inside coolers, flower pots, discarded tyres, open drums and clogged gutters. Empty and scrub them weekly.", "en"},
		{"What helps in quitting smoking?", "Quitting smoking works best with a fixed quit date, nicotine gum or patches, support from family, and avoiding triggers like tea breaks with smokers.", "en"},
		{"How much sleep does an adult need?", "Adults need seven to nine hours of sleep. A fixed bedtime, a dark cool room and no screens for an hour before bed improve sleep quality.", "en"},
		{"What are the benefits of daily yoga?", "Daily yoga improves flexibility, posture and breathing, lowers stress hormones and helps control blood pressure and blood sugar.", "en"},
	}

	hi := []E2EFaq{
		{"बुखार का इलाज घर पर कैसे करें?", "आराम करें, तरल पदार्थ पिएं और पैरासिटामोल लें। तीन दिन से अधिक बुखार रहने पर डॉक्टर से मिलें।", "hi"},
		{"ओआरएस का घोल कैसे बनाएं?", "एक लीटर उबले और ठंडे पानी में ओआरएस का पूरा पैकेट घोलें। दस्त में थोड़ी थोड़ी मात्रा में बार बार पिलाएं।", "hi"},
		{"डेंगू से बचाव कैसे करें?", "कूलर और गमलों का रुका हुआ पानी हटाएं, पूरी बाजू के कपड़े पहनें और मच्छरदानी का उपयोग करें।", "hi"},
		{"टीकाकरण क्यों जरूरी है?", "टीकाकरण बच्चों को पोलियो, खसरा और हेपेटाइटिस जैसी गंभीर बीमारियों से बचाता है। सभी टीके समय पर लगवाएं।", "hi"},
	}

	es := []E2EFaq{
		{"¿Cuáles son los síntomas del dengue?", "El dengue causa fiebre alta, dolor de cabeza intenso, dolor detrás de los ojos, dolor en las articulaciones y erupción en la piel.", "es"},
		{"¿Qué dieta es buena para la diabetes?", "Para la diabetes conviene limitar el azúcar, comer verduras y granos integrales, y mantener horarios regulares de comida.", "es"},
		{"¿Cómo preparar suero oral en casa?", "Disuelva un sobre completo de suero oral en un litro de agua hervida y fría. Ofrezca pequeños sorbos con frecuencia.", "es"},
	}

	out := make([]E2EFaq, 0, len(en)+len(hi)+len(es))
	out = append(out, en...)
	out = append(out, hi...)
	out = append(out, es...)
	return out
}

func buildQueryTestCases(faqs []E2EFaq) []QueryTestCase {
	if len(faqs) == 0 {
		return nil
	}
	// Each query is built from distinctive terms of exactly one FAQ.
	queries := []string{
		"dengue symptoms rash",
		"prevent dengue standing water",
		"malaria fever chills",
		"typhoid contaminated water",
		"tuberculosis persistent cough",
		"diabetes diet sugar",
		"normal blood pressure reading",
		"asthma inhaler mouthpiece",
		"iron deficiency anemia foods",
		"jaundice bilirubin treatment",
		"chickenpox contagious",
		"dog bite rabies vaccine",
		"snake bite first aid antivenom",
		"treat minor burn running water",
		"CPR chest compressions",
		"ORS diarrhea packet",
		"infant vaccination schedule",
		"pregnant woman folic acid",
		"exclusive breastfeeding six months",
		"newborn umbilical cord care",
		"polio drops paralysis",
		"vitamin d deficiency sunlight",
		"thyroid TSH test",
		"migraine stress sleep",
		"conjunctivitis pink eye",
		"ear infection child",
		"deworming albendazole children",
		"scabies permethrin cream",
		"heat stroke cool water",
		"food poisoning vomiting",
		"hepatitis b needles vaccine",
		"HIV casual contact handshake",
		"pneumonia child fast breathing",
		"common cold influenza fever",
		"arthritis safe exercises",
		"prevent kidney stones water",
		"urinary tract infection burning",
		"acidity heartburn spicy",
		"constipation fiber warm water",
		"lower cholesterol oats walking",
		"stroke warning signs FAST",
		"heart attack chest pain aspirin",
		"seizure first aid",
		"allergy rash itchy swelling",
		"chikungunya joint pain",
		"leptospirosis flood water",
		"correct way wash hands soap",
		"purify drinking water boiling",
		"mosquito breed coolers tyres",
		"quit smoking nicotine",
		"बुखार का इलाज",
		"ओआरएस का घोल",
		"síntomas del dengue",
	}

	var cases []QueryTestCase
	used := make(map[string]bool)
	for _, q := range queries {
		for _, f := range faqs {
			if containsTerms(f, q) && !used[f.Question] {
				cases = append(cases, QueryTestCase{
					Query:             q,
					ExpectedQuestions: []string{f.Question},
					Description:       fmt.Sprintf("query %q should match %q", q, f.Question),
				})
				used[f.Question] = true
				break
			}
		}
	}
	return cases
}

// containsTerms reports whether every word of query appears in the FAQ's
// question or answer text, ignoring case. Word presence is what matters for
// term-based matching, not phrase order.
func containsTerms(f E2EFaq, query string) bool {
	text := strings.ToLower(f.Question + " " + f.Answer)
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if !strings.Contains(text, word) {
			return false
		}
	}
	return true
}

// ToCSV renders the corpus in the import file format: a header row followed
// by one row per FAQ.
func (c *Corpus) ToCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"question", "answer", "language"}); err != nil {
		return nil, err
	}
	for _, f := range c.Faqs {
		if err := w.Write([]string{f.Question, f.Answer, f.Language}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

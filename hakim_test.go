package hakim_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/modernice/hakim"
	mock_hakim "github.com/modernice/hakim/mocks"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPipeline_Ask(t *testing.T) {
	Convey("Feature: answer a question in the language it was asked in", t, func() {
		ctrl := gomock.NewController(t)
		Reset(ctrl.Finish)

		translator := mock_hakim.NewMockTranslator(ctrl)
		model := mock_hakim.NewMockModel(ctrl)

		Convey("Given an Amharic question without a language code", func() {
			question := hakim.Question{Message: "  ራስ ምታት አለኝ  "}
			prompt := hakim.MedicalPrompt("I have a headache.", "")

			gomock.InOrder(
				translator.EXPECT().
					Translate(gomock.Any(), "ራስ ምታት አለኝ", hakim.Amharic, hakim.English).
					Return("I have a headache.", nil),
				model.EXPECT().
					Chat(gomock.Any(), prompt).
					Return(prompt+"\nDrink water and rest.\n", nil),
				translator.EXPECT().
					Translate(gomock.Any(), "Drink water and rest.", hakim.English, hakim.Amharic).
					Return("ውሃ ይጠጡ እና ያርፉ።", nil),
			)

			Convey("When the question is asked", func() {
				reply, err := hakim.New(translator, model).Ask(context.Background(), question)

				Convey("There should be no error", func() {
					So(err, ShouldBeNil)
				})

				Convey("The answer should be translated back into Amharic", func() {
					So(reply.Text, ShouldEqual, "ውሃ ይጠጡ እና ያርፉ።")
					So(reply.Language, ShouldResemble, hakim.Amharic)
				})

				Convey("The echoed prompt should be stripped from the English answer", func() {
					So(reply.EnglishQuestion, ShouldEqual, "I have a headache.")
					So(reply.EnglishAnswer, ShouldEqual, "Drink water and rest.")
				})
			})
		})

		Convey("Given an English question", func() {
			question := hakim.Question{Message: "What helps against a fever?", Language: "en"}

			model.EXPECT().
				Chat(gomock.Any(), hakim.MedicalPrompt(question.Message, "")).
				Return("Rest and fluids.", nil)

			Convey("The translator should not be called", func() {
				reply, err := hakim.New(translator, model).Ask(context.Background(), question)

				So(err, ShouldBeNil)
				So(reply.Text, ShouldEqual, "Rest and fluids.")
				So(reply.Language, ShouldResemble, hakim.English)
			})
		})

		Convey("Given an Oromo question with automatic language detection", func() {
			question := hakim.Question{Message: "Ani mataa na dhukkuba.", Language: "auto"}

			translator.EXPECT().
				Translate(gomock.Any(), question.Message, hakim.Oromo, hakim.English).
				Return("I have a headache.", nil)
			model.EXPECT().
				Chat(gomock.Any(), gomock.Any()).
				Return("Rest.", nil)
			translator.EXPECT().
				Translate(gomock.Any(), "Rest.", hakim.English, hakim.Oromo).
				Return("Boqodhu.", nil)

			Convey("The answer should be in Oromo", func() {
				reply, err := hakim.New(translator, model).Ask(context.Background(), question)

				So(err, ShouldBeNil)
				So(reply.Text, ShouldEqual, "Boqodhu.")
				So(reply.Language, ShouldResemble, hakim.Oromo)
			})
		})

		Convey("Given a custom prompt and context", func() {
			question := hakim.Question{Message: "Is it safe?", Language: "eng", Context: "Patient is pregnant."}

			model.EXPECT().
				Chat(gomock.Any(), "Patient is pregnant. | Is it safe?").
				Return("Ask your doctor.", nil)

			Convey("The prompt should be built by the custom function", func() {
				reply, err := hakim.New(translator, model, hakim.Prompt(func(q, c string) string {
					return c + " | " + q
				})).Ask(context.Background(), question)

				So(err, ShouldBeNil)
				So(reply.Text, ShouldEqual, "Ask your doctor.")
			})
		})
	})

	Convey("Feature: preserve dosages", t, func() {
		ctrl := gomock.NewController(t)
		Reset(ctrl.Finish)

		translator := mock_hakim.NewMockTranslator(ctrl)
		model := mock_hakim.NewMockModel(ctrl)

		Convey("Given a model answer that contains a dosage", func() {
			question := hakim.Question{Message: "ራስ ምታት", Language: "amh"}

			translator.EXPECT().
				Translate(gomock.Any(), "ራስ ምታት", hakim.Amharic, hakim.English).
				Return("Headache", nil)
			model.EXPECT().
				Chat(gomock.Any(), gomock.Any()).
				Return("Take 500 mg twice a day.", nil)
			translator.EXPECT().
				Translate(gomock.Any(), "Take", hakim.English, hakim.Amharic).
				Return("ይውሰዱ", nil)
			translator.EXPECT().
				Translate(gomock.Any(), "twice a day.", hakim.English, hakim.Amharic).
				Return("በቀን ሁለት ጊዜ።", nil)

			Convey("The dosage should not be translated", func() {
				reply, err := hakim.New(
					translator, model,
					hakim.Preserve(regexp.MustCompile(`\d+ ?mg`)),
				).Ask(context.Background(), question)

				So(err, ShouldBeNil)
				So(reply.Text, ShouldEqual, "ይውሰዱ 500 mg በቀን ሁለት ጊዜ።")
			})
		})
	})

	Convey("Feature: parallel translation of long answers", t, func() {
		ctrl := gomock.NewController(t)
		Reset(ctrl.Finish)

		model := mock_hakim.NewMockModel(ctrl)
		model.EXPECT().
			Chat(gomock.Any(), gomock.Any()).
			Return("One two. Three four. Five six. Seven eight. Nine ten. Eleven twelve.", nil)

		Convey("Given a translator that records concurrent requests", WithParallelTranslations(ctrl, 20*time.Millisecond, func(translator hakim.Translator, maxActive *int64) {
			reply, err := hakim.New(
				translator, model,
				hakim.Parallel(3),
				hakim.MaxSegmentRunes(14),
			).Ask(context.Background(), hakim.Question{Message: "ሰላም"})

			So(err, ShouldBeNil)

			Convey("The segments should be translated concurrently", func() {
				So(atomic.LoadInt64(maxActive), ShouldBeGreaterThan, 1)
				So(atomic.LoadInt64(maxActive), ShouldBeLessThanOrEqualTo, 3)
			})

			Convey("The segments should keep their order", func() {
				So(reply.Text, ShouldEqual, "ONE TWO. THREE FOUR. FIVE SIX. SEVEN EIGHT. NINE TEN. ELEVEN TWELVE.")
			})
		}))
	})

	Convey("Feature: errors", t, func() {
		ctrl := gomock.NewController(t)
		Reset(ctrl.Finish)

		translator := mock_hakim.NewMockTranslator(ctrl)
		model := mock_hakim.NewMockModel(ctrl)
		pipeline := hakim.New(translator, model)

		Convey("An empty message should be rejected", func() {
			_, err := pipeline.Ask(context.Background(), hakim.Question{Message: " \n "})
			So(errors.Is(err, hakim.ErrEmptyMessage), ShouldBeTrue)
		})

		Convey("An unknown language should be rejected", func() {
			_, err := pipeline.Ask(context.Background(), hakim.Question{Message: "Hallo", Language: "klingon"})
			So(errors.Is(err, hakim.ErrUnsupportedLanguage), ShouldBeTrue)
		})

		Convey("A translation failure should name the stage", func() {
			mockErr := errors.New("model is loading")
			translator.EXPECT().
				Translate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				Return("", mockErr)

			_, err := pipeline.Ask(context.Background(), hakim.Question{Message: "ራስ ምታት"})

			var stageErr *hakim.StageError
			So(errors.As(err, &stageErr), ShouldBeTrue)
			So(stageErr.Stage, ShouldEqual, hakim.StageTranslateIn)
			So(errors.Is(err, mockErr), ShouldBeTrue)
		})

		Convey("A model failure should name the stage", func() {
			mockErr := errors.New("bad gateway")
			model.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("", mockErr)

			_, err := pipeline.Ask(context.Background(), hakim.Question{Message: "Fever?", Language: "en"})

			var stageErr *hakim.StageError
			So(errors.As(err, &stageErr), ShouldBeTrue)
			So(stageErr.Stage, ShouldEqual, hakim.StageGenerate)
			So(errors.Is(err, mockErr), ShouldBeTrue)
		})

		Convey("A model that only echoes the prompt should fail", func() {
			model.EXPECT().
				Chat(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, prompt string) (string, error) {
					return prompt, nil
				})

			_, err := pipeline.Ask(context.Background(), hakim.Question{Message: "Fever?", Language: "en"})
			So(errors.Is(err, hakim.ErrEmptyAnswer), ShouldBeTrue)
		})
	})
}

func TestObserve(t *testing.T) {
	ctrl := gomock.NewController(t)

	translator := mock_hakim.NewMockTranslator(ctrl)
	translator.EXPECT().
		Translate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, text string, _, _ hakim.Language) (string, error) {
			return text, nil
		}).
		Times(2)

	model := mock_hakim.NewMockModel(ctrl)
	model.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("Rest.", nil)

	var stages []hakim.Stage
	pipeline := hakim.New(translator, model, hakim.Observe(func(stage hakim.Stage, _ time.Duration, err error) {
		if err != nil {
			t.Errorf("unexpected error in stage %s: %v", stage, err)
		}
		stages = append(stages, stage)
	}))

	if _, err := pipeline.Ask(context.Background(), hakim.Question{Message: "ራስ ምታት"}); err != nil {
		t.Fatal(err)
	}

	want := []hakim.Stage{hakim.StageTranslateIn, hakim.StageGenerate, hakim.StageTranslateOut}
	if strings.Join(stageNames(stages), ",") != strings.Join(stageNames(want), ",") {
		t.Errorf("observed stages %v; want %v", stages, want)
	}
}

func WithParallelTranslations(
	ctrl *gomock.Controller,
	d time.Duration,
	f func(hakim.Translator, *int64),
) func() {
	return func() {
		var (
			mux       sync.Mutex
			active    int64
			maxActive int64
		)

		translator := mock_hakim.NewMockTranslator(ctrl)
		translator.EXPECT().
			Translate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, text string, _, _ hakim.Language) (string, error) {
				a := atomic.AddInt64(&active, 1)
				defer atomic.AddInt64(&active, -1)

				mux.Lock()
				if a > maxActive {
					atomic.StoreInt64(&maxActive, a)
				}
				mux.Unlock()

				time.Sleep(d)
				return strings.ToUpper(text), nil
			}).
			AnyTimes()

		f(translator, &maxActive)
	}
}

func stageNames(stages []hakim.Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = string(s)
	}
	return out
}

package model_test

import (
	"context"
	"fmt"

	"github.com/vango-dev/vmodel/pkg/model"
	"github.com/vango-dev/vmodel/pkg/reactive"
)

type Counter struct {
	N int `json:"n"`
}

var counter = model.Descriptor[Counter]{
	Name:  "counter",
	State: Counter{N: 0},
	Actions: func(set model.Setter[Counter]) map[string]model.Action[Counter] {
		return map[string]model.Action[Counter]{
			"inc": model.Act1(func(_ context.Context, s Counter, by int) error {
				set.Set(model.Partial{"n": s.N + by})
				return nil
			}),
		}
	},
}

func ExampleNew() {
	m := model.New(counter)
	ctx := context.Background()

	_ = m.Actions().Call(ctx, "inc", 5)
	_ = m.Actions().Call(ctx, "inc", 3)

	fmt.Println(m.State().N)
	// Output: 8
}

func ExampleSelect() {
	m := model.Create(&counter)
	root := reactive.NewOwner(nil)
	defer root.Dispose()

	var actions *model.Actions
	reactive.Mount(root, func() {
		var n int
		n, actions = model.Select(m, func(s Counter) int { return s.N })
		fmt.Println("render", n)
	})

	_ = actions.Call(context.Background(), "inc", 2)
	// Output:
	// render 0
	// render 2
}

func ExampleUseModel() {
	root := reactive.NewOwner(nil)
	defer root.Dispose()

	view := reactive.Mount(root, func() {
		state, _ := model.UseModel(counter)
		fmt.Println("n =", state.N)
	})
	view.MarkDirty()
	// Output:
	// n = 0
	// n = 0
}

func ExampleActions_Go() {
	m := model.New(counter)
	ctx := context.Background()

	p := m.Actions().Go(ctx, "inc", 4)
	if err := p.Wait(ctx); err != nil {
		fmt.Println(err)
	}
	fmt.Println(m.State().N)
	// Output: 4
}

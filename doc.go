/*
Package formz derives live form state from user and programmatic commands,
combined with asynchronous, debounced validation, for single fields and
recursively nested groups.

A store is built from options in two phases: construction wires everything
but publishes nothing, and Start activates it. Commands may be issued in
between; they are folded into the state that is published first.

# Fields

A field holds one value of type T, described by a ValueType capability
record that coerces raw input, detects empty values and compares values:

	email, err := formz.NewField(formz.FieldOptions[string]{
	    Title:     "email",
	    Type:      formz.String,
	    Validator: formz.Chain(
	        formz.Required(formz.String, "Is required"),
	        formz.Tag[string]("email", "Must be an email"),
	    ),
	    DebounceValueForValidation: 250 * time.Millisecond,
	}, formz.CreateOptions{})

	email.OnChange(func(prev, curr formz.FieldState[string]) {
	    fmt.Println(curr.Value, curr.Validation)
	})
	email.Start(ctx)

	email.Focus()
	email.Update("someone@example.com")
	email.Blur()

Commands fold synchronously: Focus, Blur, Reset and Update. An update equal
to the current value is a no-op, and no two consecutive published states are
equal.

# Validation

A validator runs only once the field is touched and either dirty or
configured with ValidateWhenPristine; otherwise the result is Success
without a call. While a validator is in flight the result is Inconclusive.
A newer value cancels the in-flight call through its context and the stale
result is discarded. Validator errors, including panics, become Error
results; the store never stops because of a validator.

DebounceValueForValidation delays validation until the value has been quiet
for the window. DebounceValidation holds every result for its window before
publishing it, so fast validators do not flicker.

Validators that call remote services can be wrapped with Guard and the
WithRetry, WithBackoff, WithTimeout and WithFallback options. Only transient
errors are retried; a ValidationError is a verdict and is returned at once.

# Groups

A group owns named children, fields or groups, built recursively:

	form, err := formz.NewGroup(formz.GroupOptions{
	    Title: "signup",
	    Children: formz.ChildrenOf(map[string]formz.Options{
	        "email": formz.FieldOptions[string]{Type: formz.String},
	        "age":   formz.FieldOptions[int]{Type: formz.Int},
	    }),
	    Validator: formz.Check("Too young", func(v formz.Values) bool {
	        return v["age"].(int) >= 18
	    }),
	}, formz.CreateOptions{})

The group publishes once every child has published. Its value maps child
names to values, its flags are the OR of the children's flags, and its
validation collects every child's result together with its own validator's
result. Reset cascades to every child.

# Definitions

Forms can be declared in YAML or JSON and decoded with DecodeDefinition.
Definition.Options returns the options for New.

# Observability

Stores emit capitan signals (StoreStarted, StatePublished, ValidationSettled
and others) keyed with KeyStoreID and KeyElement, report to a
MetricsProvider, and keep a bounded ErrorHistory of validator failures.
Time is taken from a clockz.Clock so tests can use a fake clock.
*/
package formz

package category

import "github.com/spendsmart-api/internal/domain"

var defaults = []domain.CategoryInput{
	{Name: "Food & Dining", Type: domain.CategoryExpense, Description: "Restaurants, cafes, takeout and dining out"},
	{Name: "Groceries", Type: domain.CategoryExpense, Description: "Supermarket and household grocery purchases"},
	{Name: "Shopping", Type: domain.CategoryExpense, Description: "Clothes, accessories, gadgets and shopping sprees"},
	{Name: "Housing", Type: domain.CategoryExpense, Description: "Rent, mortgage, maintenance and HOA fees"},
	{Name: "Utilities", Type: domain.CategoryExpense, Description: "Electricity, water, gas, internet, mobile"},
	{Name: "Transportation", Type: domain.CategoryExpense, Description: "Fuel, public transit, ride sharing, vehicle maintenance"},
	{Name: "Healthcare", Type: domain.CategoryExpense, Description: "Doctor visits, medication, insurance co-pays"},
	{Name: "Insurance", Type: domain.CategoryExpense, Description: "Life, health, auto and other insurance premiums"},
	{Name: "Entertainment", Type: domain.CategoryExpense, Description: "Movies, concerts, streaming, hobbies and fun"},
	{Name: "Travel", Type: domain.CategoryExpense, Description: "Flights, hotels, vacations and weekend getaways"},
	{Name: "Education", Type: domain.CategoryExpense, Description: "Tuition, courses, books and certifications"},
	{Name: "Subscriptions", Type: domain.CategoryExpense, Description: "Music, streaming, software and recurring subscriptions"},
	{Name: "Gifts & Donations", Type: domain.CategoryExpense, Description: "Charity, donations and gifting loved ones"},
	{Name: "Personal Care", Type: domain.CategoryExpense, Description: "Salon, spa, fitness and wellness expenses"},
	{Name: "Taxes", Type: domain.CategoryExpense, Description: "Income tax, property tax or other government dues"},
	{Name: "Savings Transfer", Type: domain.CategoryExpense, Description: "Money moved to savings or emergency funds"},
	{Name: "Investment Purchase", Type: domain.CategoryExpense, Description: "Mutual funds, stock purchases and SIPs"},
	{Name: "Miscellaneous", Type: domain.CategoryExpense, Description: "Everything that doesn't fit in other categories"},

	{Name: "Salary", Type: domain.CategoryIncome, Description: "Monthly or bi-weekly salary credited"},
	{Name: "Bonus", Type: domain.CategoryIncome, Description: "Annual bonus, incentives or performance bonus"},
	{Name: "Freelancing", Type: domain.CategoryIncome, Description: "Side gigs, consulting or freelance projects"},
	{Name: "Investments", Type: domain.CategoryIncome, Description: "Capital gains, interest received or trading profits"},
	{Name: "Rental Income", Type: domain.CategoryIncome, Description: "Income from renting out property or assets"},
	{Name: "Refunds & Reimbursements", Type: domain.CategoryIncome, Description: "Refunds from merchants or expense reimbursements"},
	{Name: "Interest Income", Type: domain.CategoryIncome, Description: "Bank interest or fixed deposit returns"},
	{Name: "Dividends", Type: domain.CategoryIncome, Description: "Payouts from stocks, mutual funds or equity"},
	{Name: "Gift Income", Type: domain.CategoryIncome, Description: "Cash gifts received from friends or family"},
	{Name: "Other Income", Type: domain.CategoryIncome, Description: "Any other income source not categorised"},
}
